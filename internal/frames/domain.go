package frames

import "time"

// FrameTemplate holds named default properties shared by frames.
type FrameTemplate struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Defaults  map[string]string `json:"defaults"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Frame is a Farcaster frame definition. Properties from the referenced
// template act as defaults; Overrides win on key collision.
type Frame struct {
	ID         int64             `json:"id"`
	Slug       string            `json:"slug"`
	Title      string            `json:"title"`
	ImageURL   string            `json:"imageUrl"`
	PostURL    string            `json:"postUrl"`
	Buttons    []string          `json:"buttons"`
	TemplateID *int64            `json:"templateId,omitempty"`
	Overrides  map[string]string `json:"overrides"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// RenderedFrame is the merged result served to frame clients.
type RenderedFrame struct {
	Slug       string            `json:"slug"`
	Title      string            `json:"title"`
	ImageURL   string            `json:"imageUrl"`
	PostURL    string            `json:"postUrl"`
	Buttons    []string          `json:"buttons"`
	Properties map[string]string `json:"properties"`
}

// ApplyTemplate merges template defaults with the frame's overrides. The
// template may be nil; the frame's own fields always win.
func ApplyTemplate(frame Frame, tmpl *FrameTemplate) RenderedFrame {
	props := make(map[string]string)
	if tmpl != nil {
		for k, v := range tmpl.Defaults {
			props[k] = v
		}
	}
	for k, v := range frame.Overrides {
		props[k] = v
	}

	rendered := RenderedFrame{
		Slug:       frame.Slug,
		Title:      frame.Title,
		ImageURL:   frame.ImageURL,
		PostURL:    frame.PostURL,
		Buttons:    append([]string(nil), frame.Buttons...),
		Properties: props,
	}
	if rendered.Title == "" {
		rendered.Title = props["title"]
	}
	if rendered.ImageURL == "" {
		rendered.ImageURL = props["imageUrl"]
	}
	if rendered.PostURL == "" {
		rendered.PostURL = props["postUrl"]
	}
	return rendered
}
