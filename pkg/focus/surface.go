package focus

import (
	"github.com/skilltreelabs/skilltree/pkg/camera"
)

// Surface is the host-side handle for one canvas layer. The engine never
// draws; it drives a surface's opacity and camera and the host renders.
//
// Attached returns a channel the host closes once the surface is mounted
// and able to display frames. The orchestrator polls it from scheduler
// steps; a surface that never attaches within the deadline rolls the
// transition back.
type Surface interface {
	// Attached is closed by the host when the surface is mounted.
	Attached() <-chan struct{}

	// Alive reports whether the surface is still mounted.
	Alive() bool

	// SetOpacity sets the whole-layer opacity in [0,1].
	SetOpacity(v float64)

	// ApplyCamera pushes a camera pose to the surface.
	ApplyCamera(s camera.State)

	// Teardown releases the surface. After Teardown, Alive reports false
	// and the engine never touches the surface again.
	Teardown()
}

// Mounter creates a surface for a freshly built layer. Hosts provide one;
// tests use stubs that attach immediately or never.
type Mounter func(*Layer) Surface
