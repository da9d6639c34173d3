package reqtype

// infoTable is in display order.
var infoTable = []Info{
	{Tag: Fetch, Label: "Fetch/XHR", Icon: "🔄", Color: "#FF6B6B"},
	{Tag: Document, Label: "Doc", Icon: "📄", Color: "#4ECDC4"},
	{Tag: Stylesheet, Label: "CSS", Icon: "🎨", Color: "#1572B6"},
	{Tag: ScriptOrData, Label: "JS", Icon: "⚡", Color: "#F7DF1E"},
	{Tag: Font, Label: "Font", Icon: "🔤", Color: "#9B59B6"},
	{Tag: Image, Label: "Img", Icon: "🖼️", Color: "#E67E22"},
	{Tag: Media, Label: "Media", Icon: "🎵", Color: "#E74C3C"},
	{Tag: Wasm, Label: "Wasm", Icon: "⚙️", Color: "#654FF0"},
	{Tag: Other, Label: "Other", Icon: "📦", Color: "#95A5A6"},
}

// contentTypeRule maps content-type substrings (or a prefix) to a tag.
type contentTypeRule struct {
	contains []string
	prefix   []string
	tag      Tag
}

// contentTypeRules are checked in order against the lowercased content type.
var contentTypeRules = []contentTypeRule{
	{contains: []string{"text/html", "application/xhtml"}, tag: Document},
	{contains: []string{"css"}, tag: Stylesheet},
	{contains: []string{"javascript", "ecmascript", "typescript", "json"}, tag: ScriptOrData},
	{contains: []string{"font", "vnd.ms-fontobject"}, tag: Font},
	{prefix: []string{"image/"}, tag: Image},
	{prefix: []string{"audio/", "video/"}, tag: Media},
	{contains: []string{"wasm"}, tag: Wasm},
	{contains: []string{"xml"}, tag: Fetch},
}

// extensions maps a lowercased file extension (without the dot) to a tag.
var extensions = buildExtensions(map[Tag][]string{
	Document:     {"html", "htm", "xhtml", "php", "asp", "aspx", "jsp", "do"},
	Stylesheet:   {"css"},
	ScriptOrData: {"js", "mjs", "cjs", "ts", "mts", "cts", "jsx", "tsx", "json", "jsonp", "es6", "es", "coffee", "dart", "ls", "vue", "svelte"},
	Font:         {"woff", "woff2", "ttf", "otf", "eot"},
	Image:        {"png", "jpg", "jpeg", "gif", "svg", "webp", "ico", "bmp", "avif"},
	Media:        {"mp3", "mp4", "wav", "avi", "mov", "wmv", "flv", "webm", "ogg", "m4a"},
	Wasm:         {"wasm"},
})

func buildExtensions(byTag map[Tag][]string) map[string]Tag {
	out := make(map[string]Tag)
	for tag, exts := range byTag {
		for _, ext := range exts {
			out[ext] = tag
		}
	}
	return out
}
