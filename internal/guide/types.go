package guide

// Document is a full guide as returned by the content API.
// Fields the extraction pipeline does not read are omitted.
type Document struct {
	GuideID      int    `json:"guideid"`
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	Difficulty   string `json:"difficulty"`
	Category     string `json:"category"`
	Introduction string `json:"introduction_rendered"`
	Conclusion   string `json:"conclusion_rendered"`
	Steps        []Step `json:"steps"`
	Parts        []Item `json:"parts"`
	Tools        []Item `json:"tools"`
	URL          string `json:"url"`
}

// Step is one ordered instruction block within a guide.
type Step struct {
	OrderBy int    `json:"orderby"`
	Title   string `json:"title"`
	Lines   []Line `json:"lines"`
	Media   Media  `json:"media"`
}

// Line is a single rendered bullet within a step.
type Line struct {
	Text string `json:"text_rendered"`
}

// Media is a step's media block. Only type "image" carries URLs we keep.
type Media struct {
	Type string      `json:"type"`
	Data []MediaItem `json:"data"`
}

// MediaItem is one media entry. Standard is a stable-size rendition;
// Original may be a signed URL that expires.
type MediaItem struct {
	Standard string `json:"standard"`
	Original string `json:"original"`
}

// Item is a required part or tool listed by a guide.
type Item struct {
	Text string `json:"text"`
}

// Summary is one entry of the catalog listing.
type Summary struct {
	GuideID int    `json:"guideid"`
	Title   string `json:"title"`
}

// Meta is the optional guide metadata attached to chunks.
// Empty fields mean the document did not carry them.
type Meta struct {
	Title string
	URL   string
}
