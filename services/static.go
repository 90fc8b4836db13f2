package services

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
)

// StaticService serves the campaign site from STATIC_ROOT. Beyond plain
// file delivery it enforces the privacy rules of the site layout:
// everything under /data is private except a sanitized content.js, and
// media files are only served when the current public content actually
// references them, so unpublished posters cannot be fetched by URL
// guessing.
type StaticService struct {
	context.DefaultService

	root string

	contentJSStripped []byte
	hasContentJS      bool

	mediaAllowlist map[string]struct{}
}

const STATIC_SVC = "static_svc"

const defaultStaticRoot = "./public"

var (
	jsBlockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)
	mediaPathRegex      = regexp.MustCompile(`["']((?:zdjęcia|video|audio)/[^"']+)["']`)
	multiSlashRegex     = regexp.MustCompile(`/+`)
)

var staticBlockedFiles = map[string]struct{}{
	"/Dockerfile":    {},
	"/README.md":     {},
	"/nginx.conf":    {},
	"/CNAME":         {},
	"/.gitignore":    {},
	"/.dockerignore": {},
	"/deploy.sh":     {},
	"/gh.sh":         {},
	"/.env":          {},
}

var staticBlockedTopDirs = map[string]struct{}{
	"server":  {},
	"scripts": {},
}

func (svc StaticService) Id() string {
	return STATIC_SVC
}

func (svc *StaticService) Configure(ctx *context.Context) error {
	root := strings.TrimSpace(os.Getenv("STATIC_ROOT"))
	if root == "" {
		root = defaultStaticRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	svc.root = abs

	svc.loadPublicContent()
	svc.buildMediaAllowlist()

	return svc.DefaultService.Configure(ctx)
}

func (svc *StaticService) Start() error {
	log.WithField("root", svc.root).
		WithField("media_allowlist", len(svc.mediaAllowlist)).
		Info("Static site loaded")
	return nil
}

func (svc *StaticService) loadPublicContent() {
	raw, err := os.ReadFile(filepath.Join(svc.root, "data", "content.js"))
	if err != nil {
		log.WithError(err).Warn("Failed to read data/content.js. The site may not work.")
		return
	}
	svc.contentJSStripped = StripJSBlockComments(raw)
	svc.hasContentJS = true
}

// buildMediaAllowlist scans the public entry files for media string
// literals. Hidden entries live inside block comments in content.js, so
// the scan runs on the stripped source.
func (svc *StaticService) buildMediaAllowlist() {
	svc.mediaAllowlist = make(map[string]struct{})

	if svc.hasContentJS {
		svc.scanMediaPaths(svc.contentJSStripped)
	}
	if raw, err := os.ReadFile(filepath.Join(svc.root, "app.js")); err == nil {
		svc.scanMediaPaths(StripJSBlockComments(raw))
	}
	// index.html references media too (e.g. og:image).
	if raw, err := os.ReadFile(filepath.Join(svc.root, "index.html")); err == nil {
		svc.scanMediaPaths(raw)
	}

	if len(svc.mediaAllowlist) == 0 {
		log.Warn("Public media allowlist is empty. Media will be blocked.")
	}
}

func (svc *StaticService) scanMediaPaths(source []byte) {
	for _, m := range mediaPathRegex.FindAllSubmatch(source, -1) {
		rel := strings.TrimSpace(string(m[1]))
		if rel == "" {
			continue
		}
		svc.addAllowedMediaPath("/" + rel)
	}
}

// addAllowedMediaPath stores both normalization forms; macOS-authored
// filenames often arrive NFD while browsers send NFC.
func (svc *StaticService) addAllowedMediaPath(p string) {
	base := NormalizePublicPath(p)
	svc.mediaAllowlist[base] = struct{}{}
	svc.mediaAllowlist[norm.NFD.String(base)] = struct{}{}
	svc.mediaAllowlist[norm.NFC.String(base)] = struct{}{}
}

func (svc *StaticService) mediaAllowed(normalizedPath string) bool {
	if _, ok := svc.mediaAllowlist[normalizedPath]; ok {
		return true
	}
	if _, ok := svc.mediaAllowlist[norm.NFD.String(normalizedPath)]; ok {
		return true
	}
	_, ok := svc.mediaAllowlist[norm.NFC.String(normalizedPath)]
	return ok
}

// StripJSBlockComments removes /* ... */ only; line comments stay because
// "https://..." inside strings would be mangled.
func StripJSBlockComments(code []byte) []byte {
	return jsBlockCommentRegex.ReplaceAll(code, nil)
}

// NormalizePublicPath forces a leading slash, forward slashes, collapsed
// separators and NFC form.
func NormalizePublicPath(p string) string {
	s := strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	s = multiSlashRegex.ReplaceAllString(s, "/")
	return norm.NFC.String(s)
}

// SafeResolve maps a URL path to an absolute file path under the static
// root, or "" when the path escapes the root.
func (svc *StaticService) SafeResolve(urlPath string) string {
	decoded := urlPath
	if d, err := url.PathUnescape(urlPath); err == nil {
		decoded = d
	}
	abs := filepath.Join(svc.root, filepath.FromSlash(decoded))
	abs = filepath.Clean(abs)
	if abs == svc.root {
		return abs
	}
	rootWithSep := svc.root
	if !strings.HasSuffix(rootWithSep, string(filepath.Separator)) {
		rootWithSep += string(filepath.Separator)
	}
	if !strings.HasPrefix(abs, rootWithSep) {
		return ""
	}
	return abs
}

// IsBlockedPath hides dotfiles (except .well-known), backend directories
// and deploy scaffolding regardless of encoding tricks.
func IsBlockedPath(rawPath, decodedPath string) bool {
	for _, p := range []string{rawPath, decodedPath} {
		for _, seg := range strings.Split(p, "/") {
			if seg == "" {
				continue
			}
			if strings.HasPrefix(seg, ".") && seg != ".well-known" {
				return true
			}
		}
		if _, ok := staticBlockedFiles[p]; ok {
			return true
		}
		if strings.HasPrefix(p, "/.env.") {
			return true
		}
	}

	decodedSegs := splitPathSegments(decodedPath)
	if len(decodedSegs) > 0 {
		if _, ok := staticBlockedTopDirs[decodedSegs[0]]; ok {
			return true
		}
	}
	return false
}

func splitPathSegments(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func contentTypeForFile(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".ico":
		return "image/x-icon"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

var noStoreExtensions = map[string]struct{}{
	".html": {},
	".js":   {},
	".css":  {},
	".json": {},
}

// cspForHTMLFile builds the page CSP. Share pages carry inline style and a
// tiny inline redirect script, so they get unsafe-inline but lose network
// access; everything else is strict.
func (svc *StaticService) cspForHTMLFile(filePath string) string {
	rel := strings.TrimPrefix(filePath, svc.root)
	relUnix := filepath.ToSlash(rel)
	isShare := strings.HasPrefix(relUnix, "/share/")

	directives := []string{
		"default-src 'self'",
		"base-uri 'self'",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"img-src 'self' data:",
		"media-src 'self' data:",
		"font-src 'self'",
	}
	if isShare {
		directives = append(directives,
			"form-action 'none'",
			"connect-src 'none'",
			"script-src 'self' 'unsafe-inline'",
			"style-src 'self' 'unsafe-inline'",
		)
	} else {
		directives = append(directives,
			"form-action 'self'",
			"connect-src 'self'",
			"script-src 'self'",
			"style-src 'self'",
		)
	}
	return strings.Join(directives, "; ")
}

func (svc *StaticService) serveFile(c *fiber.Ctx, filePath string) error {
	body, err := os.ReadFile(filePath)
	if err != nil {
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Status(fiber.StatusInternalServerError).SendString("error")
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	c.Set(fiber.HeaderContentType, contentTypeForFile(filePath))
	if ext == ".html" {
		c.Set(fiber.HeaderContentSecurityPolicy, svc.cspForHTMLFile(filePath))
	}
	if _, ok := noStoreExtensions[ext]; ok {
		c.Set(fiber.HeaderCacheControl, "no-store")
	} else {
		c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	}

	if c.Method() == fiber.MethodHead {
		return c.SendStatus(fiber.StatusOK)
	}
	return c.Send(body)
}

func notFoundText(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Status(fiber.StatusNotFound).SendString("not found")
}

// Handler is the catch-all for everything outside /api.
func (svc *StaticService) Handler(c *fiber.Ctx) error {
	method := c.Method()
	if method != fiber.MethodGet && method != fiber.MethodHead {
		c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Status(fiber.StatusMethodNotAllowed).SendString("method not allowed")
	}

	rawPath := string(c.Request().URI().PathOriginal())
	if rawPath == "" {
		rawPath = "/"
	}
	decodedPath := rawPath
	if d, err := url.PathUnescape(rawPath); err == nil {
		decodedPath = d
	}
	normalizedPath := NormalizePublicPath(decodedPath)

	if IsBlockedPath(rawPath, decodedPath) {
		return notFoundText(c)
	}

	// /data holds both published and unpublished content; only the
	// comment-stripped content.js is public.
	if normalizedPath == "/data/content.js" && svc.hasContentJS {
		c.Set(fiber.HeaderContentType, "application/javascript; charset=utf-8")
		c.Set(fiber.HeaderCacheControl, "no-store")
		if method == fiber.MethodHead {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.Send(svc.contentJSStripped)
	}
	if strings.HasPrefix(normalizedPath, "/data/") && normalizedPath != "/data/content.js" {
		return notFoundText(c)
	}

	if strings.HasPrefix(normalizedPath, "/zdjęcia/") ||
		strings.HasPrefix(normalizedPath, "/video/") ||
		strings.HasPrefix(normalizedPath, "/audio/") {
		if !svc.mediaAllowed(normalizedPath) {
			return notFoundText(c)
		}
	}

	var candidates []string
	if strings.HasSuffix(rawPath, "/") {
		candidates = append(candidates, rawPath+"index.html")
	} else {
		candidates = append(candidates, rawPath, rawPath+"/index.html")
	}
	if rawPath == "/" {
		candidates = append(candidates, "/index.html")
	}

	for _, rel := range candidates {
		abs := svc.SafeResolve(rel)
		if abs == "" {
			continue
		}
		st, err := os.Stat(abs)
		if err != nil {
			continue
		}
		if st.IsDir() {
			idx := filepath.Join(abs, "index.html")
			if idxSt, err := os.Stat(idx); err == nil && idxSt.Mode().IsRegular() {
				return svc.serveFile(c, idx)
			}
			continue
		}
		if st.Mode().IsRegular() {
			return svc.serveFile(c, abs)
		}
	}

	// SPA fallback
	fallback := filepath.Join(svc.root, "index.html")
	if st, err := os.Stat(fallback); err == nil && st.Mode().IsRegular() {
		return svc.serveFile(c, fallback)
	}
	return notFoundText(c)
}
