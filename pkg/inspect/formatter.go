package inspect

import (
	"fmt"
	"strconv"
	"strings"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowFormats includes the sample format of scan elements.
	ShowFormats bool

	// TypedValues prints attribute values parsed as float, int or bool
	// when they parse, and quoted otherwise.
	TypedValues bool

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowFormats: true,
		IndentWidth: 2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatValue formats a raw attribute value for display.
func (f *Formatter) FormatValue(raw string) string {
	if !f.TypedValues {
		return raw
	}
	s := strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return strconv.FormatBool(b)
	}
	return strconv.Quote(raw)
}

// FormatAttrs formats an attribute map, one "name: value" line per
// attribute, sorted by name.
func (f *Formatter) FormatAttrs(attrs map[string]string, depth int) string {
	var sb strings.Builder
	for _, name := range sortedKeys(attrs) {
		sb.WriteString(f.Indent(depth, fmt.Sprintf("%s: %s\n", name, f.FormatValue(attrs[name]))))
	}
	return sb.String()
}

// FormatTree formats a whole context.
func (f *Formatter) FormatTree(tree *ContextTree) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Context: %s (%s)\n", tree.Name, tree.URI)
	if tree.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", tree.Description)
	}

	fmt.Fprintf(&sb, "%d context attribute(s) found\n", len(tree.Attrs))
	sb.WriteString(f.FormatAttrs(tree.Attrs, 1))

	fmt.Fprintf(&sb, "IIO context has %d device(s):\n", len(tree.Devices))
	for i := range tree.Devices {
		sb.WriteString(f.FormatDevice(&tree.Devices[i], 1))
	}
	return sb.String()
}

// FormatDevice formats one device at the given depth.
func (f *Formatter) FormatDevice(dev *DeviceInfo, depth int) string {
	var sb strings.Builder

	name := dev.Name
	if name == "" {
		name = "<unknown>"
	}
	header := fmt.Sprintf("%s: %s", dev.ID, name)
	if dev.Label != "" {
		header += fmt.Sprintf(" (label: %s)", dev.Label)
	}
	if dev.IsTrigger {
		header += " [trigger]"
	} else if dev.BufferCapable {
		header += " [buffer capable]"
	}
	sb.WriteString(f.Indent(depth, header+"\n"))

	if len(dev.Channels) > 0 {
		sb.WriteString(f.Indent(depth+1, fmt.Sprintf("%d channels found:\n", len(dev.Channels))))
		for i := range dev.Channels {
			sb.WriteString(f.FormatChannel(&dev.Channels[i], depth+2))
		}
	}
	if len(dev.Attrs) > 0 {
		sb.WriteString(f.Indent(depth+1, fmt.Sprintf("%d device-specific attributes found:\n", len(dev.Attrs))))
		sb.WriteString(f.FormatAttrs(dev.Attrs, depth+2))
	}
	if len(dev.BufferAttrs) > 0 {
		sb.WriteString(f.Indent(depth+1, fmt.Sprintf("%d buffer-specific attributes found: %s\n",
			len(dev.BufferAttrs), strings.Join(dev.BufferAttrs, ", "))))
	}
	if len(dev.DebugAttrs) > 0 {
		sb.WriteString(f.Indent(depth+1, fmt.Sprintf("%d debug attributes found: %s\n",
			len(dev.DebugAttrs), strings.Join(dev.DebugAttrs, ", "))))
	}
	if dev.Trigger != "" {
		sb.WriteString(f.Indent(depth+1, fmt.Sprintf("Current trigger: %s\n", dev.Trigger)))
	}
	return sb.String()
}

// FormatChannel formats one channel at the given depth.
func (f *Formatter) FormatChannel(ch *ChannelInfo, depth int) string {
	var sb strings.Builder

	dir := "input"
	if ch.Output {
		dir = "output"
	}
	header := ch.ID
	if ch.Name != "" {
		header += fmt.Sprintf(": %s", ch.Name)
	}
	header += fmt.Sprintf(" (%s", dir)
	if ch.ScanElement {
		header += fmt.Sprintf(", index: %d", ch.Index)
		if f.ShowFormats && ch.Format != "" {
			header += fmt.Sprintf(", format: %s", ch.Format)
		}
	}
	header += ")"
	sb.WriteString(f.Indent(depth, header+"\n"))

	if len(ch.Attrs) > 0 {
		sb.WriteString(f.Indent(depth+1, fmt.Sprintf("%d channel-specific attributes found:\n", len(ch.Attrs))))
		sb.WriteString(f.FormatAttrs(ch.Attrs, depth+2))
	}
	return sb.String()
}
