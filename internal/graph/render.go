package graph

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrRender wraps every rendering failure.
var ErrRender = errors.New("graph render failed")

// Renderer turns DOT source into PNG bytes.
type Renderer interface {
	Render(ctx context.Context, code string) ([]byte, error)
}

// defaultAttrs is the house style applied to every generated graph: compact
// top-to-bottom layout with orthogonal edges and small rounded boxes.
const defaultAttrs = `
    rankdir="TB";
    splines="ortho";
    size="6,6!";
    ratio="compress";
    dpi="96";
    node [shape="box", style="rounded", fontname="Arial", fontsize="6.5", width="0.6", height="0.4", margin="0.1,0.1"];
    edge [fontname="Arial", fontsize="6", arrowsize="0.3"];
`

// ApplyDefaults inserts the house style right after the graph's opening
// brace so statements in the source still override it.
func ApplyDefaults(code string) string {
	i := strings.Index(code, "{")
	if i < 0 {
		return code
	}
	return code[:i+1] + defaultAttrs + code[i+1:]
}

// DotRenderer shells out to Graphviz.
type DotRenderer struct {
	Binary  string
	Timeout time.Duration
}

// NewDotRenderer returns a renderer for the given dot binary. A zero timeout
// means the caller's context is the only limit.
func NewDotRenderer(binary string, timeout time.Duration) *DotRenderer {
	if binary == "" {
		binary = "dot"
	}
	return &DotRenderer{Binary: binary, Timeout: timeout}
}

// Render runs `dot -Tpng` over the styled source.
func (r *DotRenderer) Render(ctx context.Context, code string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Binary, "-Tpng")
	cmd.Stdin = strings.NewReader(ApplyDefaults(code))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrRender, msg)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrRender)
	}
	return stdout.Bytes(), nil
}

// EncodeImage returns the base64 form used in the cfg_image field.
func EncodeImage(png []byte) string {
	return base64.StdEncoding.EncodeToString(png)
}

// DecodeImage reverses EncodeImage.
func DecodeImage(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return b, nil
}
