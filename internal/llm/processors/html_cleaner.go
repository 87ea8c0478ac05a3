package processors

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"jobscout/pkg/utils"
)

var (
	interTagSpace = regexp.MustCompile(`>\s+<`)
	whitespaceRun = regexp.MustCompile(`\s+`)

	// elements too small to hold a listing
	inlineTags = map[string]bool{
		"a": true, "span": true, "button": true, "label": true, "strong": true,
		"em": true, "b": true, "i": true, "small": true, "h1": true, "h2": true,
		"h3": true, "h4": true, "h5": true, "h6": true, "p": true,
	}
)

// HTMLCleaner reduces raw page markup to the structure a model needs to
// propose selectors: no scripts or media, a small attribute allow-list and
// only the part of the page that most likely holds the listings.
type HTMLCleaner struct {
	// Tags to remove completely
	removeTags []string
	// Attributes to keep (others will be removed)
	keepAttributes map[string]bool
	// Class fragments that mark job content, used when no landmark exists
	jobHints []string
	// MaxChars truncates the output; 0 keeps everything
	MaxChars int
}

// NewHTMLCleaner creates a cleaner with the default rules
func NewHTMLCleaner(maxChars int) *HTMLCleaner {
	return &HTMLCleaner{
		removeTags: []string{"script", "style", "svg", "img", "noscript", "iframe"},
		keepAttributes: map[string]bool{
			"class":       true,
			"id":          true,
			"data-id":     true,
			"data-job-id": true,
			"href":        true,
			"role":        true,
			"data-testid": true,
		},
		jobHints: []string{
			"job", "position", "career", "listing", "opening", "vacanc", "opportunit", "posting",
		},
		MaxChars: maxChars,
	}
}

// Normalize returns the reduced markup. Identical input always yields
// identical output.
func (hc *HTMLCleaner) Normalize(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}

	doc.Find(strings.Join(hc.removeTags, ", ")).Remove()
	for _, n := range doc.Nodes {
		removeComments(n)
	}
	hc.cleanAttributes(doc)

	root := hc.focalRoot(doc)
	if root == nil || (root.Children().Length() == 0 && strings.TrimSpace(root.Text()) == "") {
		return "", nil
	}
	out, err := goquery.OuterHtml(root)
	if err != nil {
		return "", err
	}

	out = interTagSpace.ReplaceAllString(out, "><")
	out = strings.TrimSpace(whitespaceRun.ReplaceAllString(out, " "))
	if hc.MaxChars > 0 {
		out = utils.Truncate(out, hc.MaxChars)
	}
	return out, nil
}

// focalRoot picks main or [role=main] first, then the job-hinted container
// that best covers the listing, then body
func (hc *HTMLCleaner) focalRoot(doc *goquery.Document) *goquery.Selection {
	if main := doc.Find("main, [role='main']").First(); main.Length() > 0 {
		return main
	}
	if listing := hc.listingRoot(doc); listing != nil {
		return listing
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	if doc.Selection.Length() == 0 {
		return nil
	}
	return doc.Selection
}

// listingRoot looks only at job-hinted block elements outside page chrome.
// The candidate holding the most hinted descendants wins; rows without a
// hinted wrapper yield their shared parent; a lone hinted container needs
// at least two links. Nil when nothing qualifies.
func (hc *HTMLCleaner) listingRoot(doc *goquery.Document) *goquery.Selection {
	var hinted []*goquery.Selection
	doc.Find("body [class]").Each(func(_ int, s *goquery.Selection) {
		if hc.isHinted(s) && !inlineTags[goquery.NodeName(s)] && s.Closest("header, nav, footer").Length() == 0 {
			hinted = append(hinted, s)
		}
	})
	if len(hinted) == 0 {
		return nil
	}

	var (
		best      *goquery.Selection
		bestScore int
	)
	for _, candidate := range hinted {
		score := 0
		for _, other := range hinted {
			if contains(candidate.Get(0), other.Get(0)) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if best != nil {
		return best
	}

	parents := make(map[*html.Node]int)
	for _, row := range hinted {
		if parent := row.Get(0).Parent; parent != nil {
			parents[parent]++
		}
	}
	for _, row := range hinted {
		if parent := row.Get(0).Parent; parent != nil && parents[parent] > 1 && parent.Type == html.ElementNode {
			return row.Parent()
		}
	}

	for _, candidate := range hinted {
		if candidate.Find("a[href]").Length() >= 2 {
			return candidate
		}
	}
	return nil
}

func (hc *HTMLCleaner) isHinted(s *goquery.Selection) bool {
	class := strings.ToLower(s.AttrOr("class", ""))
	for _, hint := range hc.jobHints {
		if strings.Contains(class, hint) {
			return true
		}
	}
	return false
}

// contains reports whether n is a strict descendant of ancestor
func contains(ancestor, n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// cleanAttributes removes every attribute outside the allow-list, keeping
// the original attribute order
func (hc *HTMLCleaner) cleanAttributes(doc *goquery.Document) {
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			kept := n.Attr[:0]
			for _, attr := range n.Attr {
				if hc.keepAttributes[attr.Key] {
					kept = append(kept, attr)
				}
			}
			n.Attr = kept
		}
	})
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}
