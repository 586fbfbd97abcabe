package bufferpool

import "errors"

// ErrPoolExhausted is returned by NewPage/FetchWrite/FetchRead when the
// pool has no free frame left to satisfy a pin.
var ErrPoolExhausted = errors.New("bufferpool: pool exhausted")

// ErrPageNotFound is returned by Fetch* when id does not name a live
// page.
var ErrPageNotFound = errors.New("bufferpool: page not found")

// ErrCorruptPage is returned by Disk's Fetch* when a page's checksum does
// not match its stored content.
var ErrCorruptPage = errors.New("bufferpool: corrupt page")

// ErrClosed is returned by any operation performed on a Disk pool after
// Close has completed.
var ErrClosed = errors.New("bufferpool: pool closed")
