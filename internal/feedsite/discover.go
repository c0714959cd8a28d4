package feedsite

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// feedMIMETypes はフィード自動発見で探すlink要素のtype属性値。
var feedMIMETypes = map[string]bool{
	"application/rss+xml":   true,
	"application/atom+xml":  true,
	"application/feed+json": true,
}

// FindFeedURL はHTMLからフィードURLを自動発見する。
// <link rel="alternate" type="application/rss+xml"> 形式のlink要素を探し、
// 最初に見つかったhrefをbaseURL基準の絶対URLにして返す。
// 見つからない場合は空文字列を返す。
func FindFeedURL(htmlBody, baseURL string) string {
	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return ""
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, typ, href string
			for _, attr := range n.Attr {
				switch strings.ToLower(attr.Key) {
				case "rel":
					rel = strings.ToLower(attr.Val)
				case "type":
					typ = strings.ToLower(attr.Val)
				case "href":
					href = attr.Val
				}
			}
			if rel == "alternate" && feedMIMETypes[typ] && href != "" {
				if resolved, err := base.Parse(href); err == nil {
					found = resolved.String()
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return found
}
