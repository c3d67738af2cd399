// Package data embeds the static mutation, crop and drop tables.
package data

import "embed"

//go:embed mutations.json crops.json drops.csv overrides.yaml
var FS embed.FS
