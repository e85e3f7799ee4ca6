package codegen

import "strings"

// Buffer is an append-only text accumulator for the assembly being
// generated. It is the Go rendering of the `Code` type the language-
// neutral data model names: a fragment accumulator, a line-oriented
// append, a label emitter, and a final-string accessor.
type Buffer struct {
	b strings.Builder
}

// Append writes a fragment with no trailing newline.
func (c *Buffer) Append(fragment string) {
	c.b.WriteString(fragment)
}

// AppendLine writes a fragment followed by a newline.
func (c *Buffer) AppendLine(fragment string) {
	c.b.WriteString(fragment)
	c.b.WriteByte('\n')
}

// Label writes `name:` followed by a newline.
func (c *Buffer) Label(name string) {
	c.b.WriteString(name)
	c.b.WriteString(":\n")
}

// String finalizes the buffer into the output string.
func (c *Buffer) String() string {
	return c.b.String()
}
