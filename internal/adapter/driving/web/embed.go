package web

import "embed"

// StaticFS holds the embedded static assets (stylesheet).
//
//go:embed static/*
var StaticFS embed.FS

// TemplateFS holds the embedded page templates.
//
//go:embed templates/*.tmpl
var TemplateFS embed.FS
