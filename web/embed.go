package web

import "embed"

// Templates embeds HTML templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static embeds static assets.
//
//go:embed static/**/*
var Static embed.FS

// Data embeds the bundled supplier seed used when the remote seed is unreachable.
//
//go:embed data/proveedores.json
var Data embed.FS

// SeedPath is the location of the bundled seed inside Data.
const SeedPath = "data/proveedores.json"
