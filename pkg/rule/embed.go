package rule

import "embed"

// builtinRulesFS embeds the built-in detection catalog: secret signatures
// for cloud providers, SaaS platforms, key material, and entropy-gated
// generic credential assignments.
//
//go:embed rules/*.yml
var builtinRulesFS embed.FS
