package api

// MemeInfo describes one meme template advertised by the backend.
type MemeInfo struct {
	Key          string         `json:"key"`
	Params       MemeParams     `json:"params"`
	Keywords     []string       `json:"keywords"`
	Shortcuts    []MemeShortcut `json:"shortcuts"`
	Tags         []string       `json:"tags"`
	DateCreated  string         `json:"date_created,omitempty"`
	DateModified string         `json:"date_modified,omitempty"`
}

// MemeParams bounds the inputs a meme accepts.
type MemeParams struct {
	MinImages    int          `json:"min_images"`
	MaxImages    int          `json:"max_images"`
	MinTexts     int          `json:"min_texts"`
	MaxTexts     int          `json:"max_texts"`
	DefaultTexts []string     `json:"default_texts"`
	Options      []MemeOption `json:"options"`
}

// MemeOption is a named, typed option of a meme (e.g. a boolean "circle").
type MemeOption struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Default     any      `json:"default,omitempty"`
	Description string   `json:"description,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
}

// MemeShortcut is a backend-defined trigger pattern that invokes a meme
// with preset texts or options.
type MemeShortcut struct {
	Pattern   string         `json:"pattern"`
	Humanized string         `json:"humanized,omitempty"`
	Names     []string       `json:"names,omitempty"`
	Texts     []string       `json:"texts,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// Image is an input image already uploaded to the backend.
type Image struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// GenerateRequest is the body of a meme render call.
type GenerateRequest struct {
	Images  []Image        `json:"images"`
	Texts   []string       `json:"texts"`
	Options map[string]any `json:"options"`
}

type imageIDResponse struct {
	ImageID string `json:"image_id"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
