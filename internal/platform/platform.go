// Package platform isolates the OS-specific services the engine needs:
// revealing a finished file, moving it out of staging, and best-effort
// permission hardening.
package platform

import "context"

// Opener reveals a downloaded file with the OS-appropriate mechanism.
type Opener interface {
	Open(ctx context.Context, path string) error
}

// Mover relocates a staged file into the destination directory, keeping its
// base name.
type Mover interface {
	Move(src, destDir string) (string, error)
}

// Granter widens permissions on a downloaded file where the OS supports it.
// Grant failures never affect download correctness; callers swallow and log
// them.
type Granter interface {
	GrantFullControl(ctx context.Context, path string) error
}
