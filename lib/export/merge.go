package export

// Override carries caller changes to one format's settings. Nil fields keep
// the default. Config is deep-merged into the default config.
type Override struct {
	Label           *string        `yaml:"label" json:"label"`
	Icon            *string        `yaml:"icon" json:"icon"`
	IconClass       *string        `yaml:"icon_class" json:"iconClass"`
	Title           *string        `yaml:"title" json:"title"`
	ShowHeader      *bool          `yaml:"show_header" json:"showHeader"`
	ShowPageSummary *bool          `yaml:"show_page_summary" json:"showPageSummary"`
	ShowFooter      *bool          `yaml:"show_footer" json:"showFooter"`
	ShowCaption     *bool          `yaml:"show_caption" json:"showCaption"`
	Filename        *string        `yaml:"filename" json:"filename"`
	AlertMsg        *string        `yaml:"alert_msg" json:"alertMsg"`
	MIME            *string        `yaml:"mime" json:"mime"`
	Config          map[string]any `yaml:"config" json:"config"`
}

// Merge combines defaults with caller overrides.
//
// With no overrides the result equals defaults. Otherwise only the formats
// named in overrides are enabled, each built from its default with the
// override applied on top. Formats missing from defaults (PDF without a
// renderer) stay disabled even when overridden. Neither input is modified.
func Merge(defaults Table, overrides map[Format]Override) Table {
	if len(overrides) == 0 {
		return defaults.Clone()
	}
	out := make(Table, len(overrides))
	for f, o := range overrides {
		def, ok := defaults[f]
		if !ok {
			continue
		}
		out[f] = o.apply(def.Clone())
	}
	return out
}

func (o Override) apply(s Settings) Settings {
	setString(&s.Label, o.Label)
	setString(&s.Icon, o.Icon)
	setString(&s.IconClass, o.IconClass)
	setString(&s.Title, o.Title)
	setBool(&s.ShowHeader, o.ShowHeader)
	setBool(&s.ShowPageSummary, o.ShowPageSummary)
	setBool(&s.ShowFooter, o.ShowFooter)
	setBool(&s.ShowCaption, o.ShowCaption)
	setString(&s.Filename, o.Filename)
	setString(&s.AlertMsg, o.AlertMsg)
	setString(&s.MIME, o.MIME)
	if o.Config != nil {
		s.Config = MergeMaps(s.Config, o.Config)
	}
	return s
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// MergeMaps deep-merges src into a copy of dst. Nested maps merge
// recursively, lists are concatenated and any other src value replaces the
// dst value.
func MergeMaps(dst, src map[string]any) map[string]any {
	out := cloneMap(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, sv := range src {
		dv, exists := out[k]
		if !exists {
			out[k] = cloneValue(sv)
			continue
		}
		switch s := sv.(type) {
		case map[string]any:
			if d, ok := dv.(map[string]any); ok {
				out[k] = MergeMaps(d, s)
				continue
			}
		case []any:
			if d, ok := dv.([]any); ok {
				merged := make([]any, 0, len(d)+len(s))
				merged = append(merged, d...)
				for _, v := range s {
					merged = append(merged, cloneValue(v))
				}
				out[k] = merged
				continue
			}
		}
		out[k] = cloneValue(sv)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
