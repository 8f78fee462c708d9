package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var files embed.FS

// Templates 解析内嵌的页面模板
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	}).ParseFS(files, "templates/*.html")
}
