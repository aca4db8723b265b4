package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const viewCookieName = "checkers_view"

// uiView is the board layout a browser is sent to. The value is what the
// view cookie stores.
type uiView string

const (
	viewDesktop uiView = "web"
	viewMobile  uiView = "mobile"
)

func (v uiView) root() string {
	if v == viewMobile {
		return "/web_mobile/"
	}
	return "/web/"
}

var viewAliases = map[string]uiView{
	"web":        viewDesktop,
	"desktop":    viewDesktop,
	"pc":         viewDesktop,
	"mobile":     viewMobile,
	"m":          viewMobile,
	"phone":      viewMobile,
	"web_mobile": viewMobile,
}

var mobileAgents = []string{"android", "iphone", "ipad", "ipod", "mobile", "windows phone"}

// RegisterStaticRoutes serves the desktop board under /web/ and the mobile
// board under /web_mobile/. A bare / redirects to one of them, chosen by
// ?view=, then the view cookie, then the User-Agent.
func RegisterStaticRoutes(r chi.Router, desktopDir, mobileDir string) {
	if desktopDir == "" {
		desktopDir = "."
	}
	if mobileDir == "" {
		mobileDir = desktopDir
	}

	for view, dir := range map[uiView]string{viewDesktop: desktopDir, viewMobile: mobileDir} {
		prefix := view.root()
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(dir))))
		r.Get(strings.TrimSuffix(prefix, "/"), func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, prefix, http.StatusFound)
		})
	}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		view := chooseView(w, req)
		w.Header().Set("Vary", "User-Agent, Cookie")
		http.Redirect(w, req, view.root(), http.StatusFound)
	})
}

// chooseView remembers an explicit ?view= choice in a cookie for 30 days.
func chooseView(w http.ResponseWriter, r *http.Request) uiView {
	if v, ok := parseView(r.URL.Query().Get("view")); ok {
		http.SetCookie(w, &http.Cookie{
			Name:     viewCookieName,
			Value:    string(v),
			Path:     "/",
			MaxAge:   30 * 24 * 60 * 60,
			SameSite: http.SameSiteLaxMode,
		})
		return v
	}
	if c, err := r.Cookie(viewCookieName); err == nil {
		if v, ok := parseView(c.Value); ok {
			return v
		}
	}

	ua := strings.ToLower(r.UserAgent())
	for _, agent := range mobileAgents {
		if strings.Contains(ua, agent) {
			return viewMobile
		}
	}
	return viewDesktop
}

func parseView(s string) (uiView, bool) {
	v, ok := viewAliases[strings.ToLower(strings.TrimSpace(s))]
	return v, ok
}
