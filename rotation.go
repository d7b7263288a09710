package ringlog

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// backupTimestampFormat names rotated files. The nanosecond field keeps
// names unique under rapid rotation.
const backupTimestampFormat = "20060102_150405.000000000"

// compressQueueSize bounds the worklist of rotated files awaiting
// compression. When full, new entries are skipped rather than blocking the
// worker thread; the files simply remain uncompressed.
const compressQueueSize = 16

// rotationManager owns the active log file on behalf of the worker thread:
// it tracks size and age, performs the close/rename/reopen swap, prunes old
// backups and hands rotated files to a best-effort compression goroutine.
//
// All methods except the compression goroutine run on the worker thread, so
// no locking guards the file handle.
type rotationManager struct {
	cfg      RotationConfig
	basePath string
	file     *os.File
	size     int64
	openedAt time.Time

	compressCh   chan string
	compressDone chan struct{}
	errh         func(error)
}

// newRotationManager opens (or creates) the active file at basePath and, if
// compression is enabled, starts the background compression helper. errh
// receives best-effort error reports and must be safe to call from the
// compression goroutine.
func newRotationManager(basePath string, cfg RotationConfig, errh func(error)) (*rotationManager, error) {
	file, err := os.OpenFile(basePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	size := int64(0)
	if fi, err := file.Stat(); err == nil {
		size = fi.Size()
	}

	r := &rotationManager{
		cfg:      cfg,
		basePath: basePath,
		file:     file,
		size:     size,
		openedAt: time.Now(),
		errh:     errh,
	}
	if cfg.Compress {
		r.compressCh = make(chan string, compressQueueSize)
		r.compressDone = make(chan struct{})
		go r.compressWorker()
	}
	return r, nil
}

// write appends p to the active file and accounts its size.
func (r *rotationManager) write(p []byte) error {
	n, err := r.file.Write(p)
	r.size += int64(n)
	if err != nil {
		return fmt.Errorf("log write error: %w", err)
	}
	return nil
}

// shouldRotate evaluates the configured trigger against the current file.
func (r *rotationManager) shouldRotate() bool {
	bySize := r.cfg.MaxSizeBytes > 0 && r.size > r.cfg.MaxSizeBytes
	byTime := r.cfg.MaxAgeSeconds > 0 &&
		time.Since(r.openedAt) >= time.Duration(r.cfg.MaxAgeSeconds)*time.Second

	switch r.cfg.Strategy {
	case RotateBySize:
		return bySize
	case RotateByTime:
		return byTime
	default:
		return bySize || byTime
	}
}

// maybeRotate rotates if a trigger has fired. A failed swap is reported as
// an error and retried on the next cycle; writes continue to the previous
// file meanwhile.
func (r *rotationManager) maybeRotate() error {
	if !r.shouldRotate() {
		return nil
	}
	return r.rotate()
}

// rotate performs the swap: close the active file, rename it to a
// timestamp-suffixed path, reopen a fresh file at the original path, then
// queue the old file for compression and prune backups beyond retention.
func (r *rotationManager) rotate() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	base := strings.TrimSuffix(r.basePath, ".log")
	stamp := time.Now().Format(backupTimestampFormat)
	backupPath := fmt.Sprintf("%s_%s.log", base, stamp)

	if err := os.Rename(r.basePath, backupPath); err != nil {
		// Keep writing to the old file; the trigger stays armed so the
		// swap is retried on the next cycle.
		file, openErr := os.OpenFile(r.basePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if openErr != nil {
			return fmt.Errorf("failed to rename log file (%v) and couldn't reopen original (%v)", err, openErr)
		}
		r.file = file
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	file, err := os.OpenFile(r.basePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create new log file: %w", err)
	}
	r.file = file
	r.size = 0
	r.openedAt = time.Now()

	if r.compressCh != nil {
		select {
		case r.compressCh <- backupPath:
		default:
			// Worklist full; leave this backup uncompressed.
		}
	}

	r.pruneBackups()
	return nil
}

// pruneBackups deletes the oldest rotated files once retention exceeds
// MaxFiles. Timestamped names sort lexically in creation order.
func (r *rotationManager) pruneBackups() {
	if r.cfg.MaxFiles <= 0 {
		return
	}
	base := strings.TrimSuffix(r.basePath, ".log")
	plain, _ := filepath.Glob(base + "_*.log")
	gz, _ := filepath.Glob(base + "_*.log.gz")
	backups := append(plain, gz...)
	if len(backups) <= r.cfg.MaxFiles {
		return
	}
	sort.Strings(backups)
	for _, old := range backups[:len(backups)-r.cfg.MaxFiles] {
		os.Remove(old)
	}
}

// compressWorker drains the rotation worklist, gzipping each file in the
// background. Failures are reported and otherwise ignored; rotation
// correctness never depends on compression succeeding.
func (r *rotationManager) compressWorker() {
	defer close(r.compressDone)
	for path := range r.compressCh {
		if err := compressFile(path); err != nil {
			r.errh(fmt.Errorf("log compression failed: %w", err))
		}
	}
}

func compressFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}

	dst, err := os.Create(path + ".gz")
	if err != nil {
		src.Close()
		return err
	}

	gz := gzip.NewWriter(dst)
	_, err = io.Copy(gz, src)
	src.Close()
	if cerr := gz.Close(); err == nil {
		err = cerr
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path + ".gz")
		return err
	}
	return os.Remove(path)
}

// sync flushes the active file to stable storage.
func (r *rotationManager) sync() {
	if r.file != nil {
		r.file.Sync()
	}
}

// close stops the compression helper (waiting briefly for in-flight work)
// and closes the active file.
func (r *rotationManager) close() error {
	if r.compressCh != nil {
		close(r.compressCh)
		select {
		case <-r.compressDone:
		case <-time.After(5 * time.Second):
		}
	}
	if r.file == nil {
		return nil
	}
	r.file.Sync()
	return r.file.Close()
}
