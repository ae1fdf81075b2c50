// Package recording owns the capture device used for drill answers and
// ad-hoc clips.
//
// A Recorder grants at most one Session per device at a time. Exclusivity is
// enforced in-process and across processes through a lock file per device.
// Every session ends through Session.Stop, which clears the auto-stop timer,
// stops the capture stream and releases the lock regardless of how the
// session ended.
//
// FFmpegDevice captures V4L2 video plus Pulse/ALSA audio through the ffmpeg
// binary. DeviceWatcher listens for udev removal events so a camera that
// disappears mid-recording resets the recorder instead of leaving a hung
// session.
package recording
