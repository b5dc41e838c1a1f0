package capture

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Marker identifiers shared with the renderer's sandbox chrome
const (
	attrEditable = "data-cm-editable"
	attrLink     = "data-cm-link"
	hintID       = "cm-hint"
	overlayID    = "cm-overlay"
)

// emailPolicy permits the markup email clients render while refusing
// anything executable. Built once; bluemonday policies are immutable
// after construction and safe for concurrent use.
var emailPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("button", "center", "font")
	p.AllowAttrs("style", "class", "id", "align", "valign", "width", "height",
		"cellpadding", "cellspacing", "border", "bgcolor").Globally()
	p.AllowAttrs("type").OnElements("button")
	// Inline images arrive as data URIs from the asset endpoint and
	// must survive every serialization pass
	p.AllowDataURIImages()
	// Emails are first-party content, not UGC links
	p.RequireNoFollowOnLinks(false)
	return p
}()

// serializeLocked produces the cleaned snapshot of the editable body.
// Order matters: clone, drop hint, drop overlay, drop scripts, strip
// markers, serialize. The result never contains editing artifacts.
// Caller holds e.mu.
func (e *Engine) serializeLocked() string {
	clone := e.doc.Find("body").Clone()

	clone.Find("#" + hintID).Remove()
	clone.Find("#" + overlayID).Remove()
	clone.Find("script").Remove()

	clone.Find("[" + attrEditable + "]").Each(func(_ int, s *goquery.Selection) {
		s.RemoveAttr(attrEditable)
		s.RemoveAttr(attrLink)
		s.RemoveAttr("contenteditable")
	})

	inner, err := clone.Html()
	if err != nil {
		return ""
	}

	return emailPolicy.Sanitize(inner)
}
