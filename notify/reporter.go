package notify

import (
	"github.com/reglet-dev/reglet-memes/locale"
)

// Reporter renders the activation states onto a Notifier.
type Reporter struct {
	notifier Notifier
	catalog  *locale.Catalog
}

// NewReporter wraps n. A nil notifier becomes Nop and a nil catalog the
// fallback locale.
func NewReporter(n Notifier, catalog *locale.Catalog) *Reporter {
	if n == nil {
		n = Nop{}
	}
	if catalog == nil {
		catalog = locale.MustLoad(locale.Fallback)
	}
	return &Reporter{notifier: n, catalog: catalog}
}

// Notifier returns the wrapped notifier.
func (r *Reporter) Notifier() Notifier {
	return r.notifier
}

// Initializing reports that activation has started.
func (r *Reporter) Initializing() {
	r.update(SeverityInitializing, r.catalog.Text("status.initializing", nil))
}

// SyncFailed reports a failed backend sync. notFound selects the
// incompatible-backend hint over the generic connectivity hint.
func (r *Reporter) SyncFailed(notFound bool) {
	hint := "status.sync-generic"
	if notFound {
		hint = "status.sync-not-found"
	}
	r.update(SeverityDanger,
		r.catalog.Text("status.sync-failed", nil),
		r.catalog.Text(hint, nil),
	)
}

// RegistrationFailed reports a failed command build.
func (r *Reporter) RegistrationFailed() {
	r.update(SeverityDanger, r.catalog.Text("status.register-failed", nil))
}

// Ready reports an active extension. When the backend is older than min the
// message is a warning carrying an extra line.
func (r *Reporter) Ready(version string, count int, versionOK bool, min string) {
	ready := r.catalog.Text("status.ready", locale.Vars{"version": version, "count": count})
	if versionOK {
		r.update(SeveritySuccess, ready)
		return
	}
	r.update(SeverityWarning,
		r.catalog.Text("status.version-warning", locale.Vars{"min": min}),
		ready,
	)
}

// Dispose releases the notifier if the host asked for it.
func (r *Reporter) Dispose() {
	if d, ok := r.notifier.(Disposer); ok {
		d.Dispose()
	}
}

func (r *Reporter) update(sev Severity, lines ...string) {
	r.notifier.Update(Message{Severity: sev, Content: lines})
}
