// picocalc-text-starter
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package fat describes the external FAT filesystem collaborator's
// mount/unmount contract. The filesystem implementation itself is out of
// scope; this interface is what mount.Manager drives.
package fat

// Filesystem is satisfied by an off-the-shelf FAT library. Mount is
// expected to call diskio.Disk.Initialize(0) (directly or indirectly)
// before attempting to read the volume's boot sector.
type Filesystem interface {
	Mount() error
	Unmount() error
}
