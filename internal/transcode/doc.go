// Package transcode wraps the external ffmpeg tool behind the Transcoder
// interface so the resolution engine can be tested with a fake.
package transcode
