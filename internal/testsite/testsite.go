// Package testsite serves a small multi-page site over httptest for tests
// that drive real fetches.
package testsite

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

const header = `<button id="hamburger">Menu</button>
<div id="menu"><a class="menu__logo" href="/">Logo</a><ul class="main-menu"><li><a data-link href="/work/" class="blur">Work</a></li></ul></div>
<div id="menu__overlay"></div>`
const footer = `<a class="blur">Mail</a>`

// Page renders a full site page. An empty bodyID omits the attribute.
func Page(bodyID, title, content string) string {
	body := "<body>"
	if bodyID != "" {
		body = fmt.Sprintf(`<body id="%s">`, bodyID)
	}
	return fmt.Sprintf(`<!doctype html><html lang="en"><head>
<meta charset="utf-8">
<title>%s</title>
<meta name="description" content="%s page">
<meta property="og:title" content="%s">
<meta name="theme-color" content="#e2ebe9">
<link rel="stylesheet" href="/style.css">
</head>%s
<div id="header"></div>
<main id="content">%s</main>
<div id="footer"></div>
</body></html>`, title, title, title, body, content)
}

var pages = map[string]string{
	"/": Page("homepage", "Home", `<h1 class="stagger-fade">Hello there</h1>
<div class="hero__round--bg-circle"><div class="circle-grid"></div></div>
<a data-link href="/work/" id="to-work">Work</a>
<a data-link href="/work/#section2" id="to-section">Section two</a>
<a data-link href="#home" id="to-top"><span>Top</span></a>
<a href="/elsewhere/" id="plain">Plain</a>`),
	"/work/": Page("work", "Work", `<h1>Work</h1>
<a data-link href="/contact/" id="to-contact">Contact</a>
<a data-link href="#section2" id="jump">Jump</a>
<a data-link href="/broken/" id="to-broken">Broken</a>
<a data-link href="/nocontent/" id="to-nocontent">No content</a>
<div class="pixel-reveal"><div class="pixel-grid"></div></div>
<div class="slider"><div class="slide">One</div><div class="slide">Two</div><div class="slide">Three</div></div>
<button id="prev">Prev</button><button id="next">Next</button>
<span id="current-slide"></span>/<span id="total-slides"></span>
<h2 id="section2">Section two</h2>`),
	"/contact/": Page("contact", "Contact", `<h1>Say hello</h1>
<a class="blur">Email</a>
<a data-link href="/about/" id="to-about">About</a>`),
	"/about/":     Page("", "About", `<h1>About</h1><div id="team">Team</div>`),
	"/nocontent/": `<html><head><title>Bare</title></head><body><p>nothing here</p></body></html>`,
	"/big/":       Page("big", "Big", `<h1>Big</h1>`+strings.Repeat("<p>filler text for a long page</p>\n", 2000)),
}

type Server struct {
	*httptest.Server

	mu     sync.Mutex
	hits   map[string]int
	delays map[string]time.Duration
}

func New() *Server {
	s := &Server{hits: map[string]int{}, delays: map[string]time.Duration{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if strings.HasSuffix(path, "/index.html") {
		path = strings.TrimSuffix(path, "index.html")
	}

	s.mu.Lock()
	s.hits[path]++
	delay := s.delays[path]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	switch path {
	case "/utilities/header.html":
		fmt.Fprint(w, header)
		return
	case "/utilities/footer.html":
		fmt.Fprint(w, footer)
		return
	case "/broken/":
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	page, ok := pages[path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, page)
}

// URL returns the absolute address of path on the site.
func (s *Server) URL(path string) string { return s.Server.URL + path }

// Hits counts requests for path, with any index.html suffix folded.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// SetDelay holds responses for path for d.
func (s *Server) SetDelay(path string, d time.Duration) {
	s.mu.Lock()
	s.delays[path] = d
	s.mu.Unlock()
}
