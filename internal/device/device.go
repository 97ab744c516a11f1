// Package device groups scan roots by the storage device backing them
// and estimates each device's sequential read bandwidth, so the import
// pipeline can size its worker pools per device instead of globally.
package device

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/franz/music-indexer/internal/util"
)

// probeReadLimit caps how much of a file the bandwidth probe reads.
// 20 MiB is enough to get past any readahead burst on spinning disks.
const probeReadLimit = 20 * 1024 * 1024

// Device identifies one storage device backing one or more scan roots
type Device struct {
	// ID is the stringified st_dev of the mount, or "" when the
	// platform cannot provide one.
	ID string

	// BandwidthMBps is the measured sequential read throughput.
	// Zero when Known is false.
	BandwidthMBps float64

	// Known reports whether the bandwidth measurement succeeded.
	// Network and virtual filesystems are never probed.
	Known bool
}

// Group is the unit of pipeline fan-out: one device plus every
// configured root that lives on it.
type Group struct {
	Device Device
	Roots  []string
}

// Workers returns the pool size for this group's extraction stage.
// Roughly one worker per 25 MB/s of measured bandwidth, clamped to
// [1, 8]. Unknown devices get a single worker so a slow network
// mount is never hammered concurrently.
func (g Group) Workers() int {
	if !g.Device.Known {
		return 1
	}
	n := int(g.Device.BandwidthMBps / 25)
	if n < 1 {
		n = 1
	}
	if n > 8 {
		n = 8
	}
	return n
}

// remoteFsTypes are filesystems whose throughput a local read probe
// cannot meaningfully measure.
var remoteFsTypes = map[string]bool{
	"nfs":        true,
	"nfs4":       true,
	"cifs":       true,
	"smbfs":      true,
	"smb2":       true,
	"sshfs":      true,
	"fuse.sshfs": true,
	"afpfs":      true,
	"9p":         true,
	"webdav":     true,
}

// Classifier groups roots by device and memoizes bandwidth probes,
// so re-scans within one process never re-read probe data.
type Classifier struct {
	mu        sync.Mutex
	bandwidth map[string]Device

	// probe is swappable for tests
	probe func(root string) (float64, bool)

	// partitions is swappable for tests; defaults to gopsutil
	partitions func() ([]disk.PartitionStat, error)
}

// NewClassifier creates a classifier with an empty probe cache
func NewClassifier() *Classifier {
	c := &Classifier{
		bandwidth: make(map[string]Device),
	}
	c.probe = c.probeBandwidth
	c.partitions = func() ([]disk.PartitionStat, error) {
		return disk.Partitions(false)
	}
	return c
}

// GroupRoots stats every root, buckets them by device ID and attaches
// a bandwidth estimate per device. Roots that cannot be statted are
// skipped with a warning; roots without a device ID each form their
// own group with unknown bandwidth.
func (c *Classifier) GroupRoots(roots []string) []Group {
	byDevice := make(map[string][]string)
	var anonymous []string

	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			util.WarnLog("Skipping unreachable root %s: %v", root, err)
			continue
		}
		id, ok := util.DeviceID(root)
		if !ok {
			anonymous = append(anonymous, root)
			continue
		}
		byDevice[id] = append(byDevice[id], root)
	}

	ids := make([]string, 0, len(byDevice))
	for id := range byDevice {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	groups := make([]Group, 0, len(ids)+len(anonymous))
	for _, id := range ids {
		roots := byDevice[id]
		sort.Strings(roots)
		groups = append(groups, Group{
			Device: c.deviceFor(id, roots[0]),
			Roots:  roots,
		})
	}
	for _, root := range anonymous {
		groups = append(groups, Group{
			Device: Device{},
			Roots:  []string{root},
		})
	}
	return groups
}

// deviceFor returns the cached measurement for id, probing on first use
func (c *Classifier) deviceFor(id, sampleRoot string) Device {
	c.mu.Lock()
	if d, ok := c.bandwidth[id]; ok {
		c.mu.Unlock()
		return d
	}
	c.mu.Unlock()

	d := Device{ID: id}
	if c.isRemote(sampleRoot) {
		util.DebugLog("Device %s is a network/virtual mount, bandwidth unknown", id)
	} else if mbps, ok := c.probe(sampleRoot); ok {
		d.BandwidthMBps = mbps
		d.Known = true
		util.DebugLog("Device %s measured at %.1f MB/s", id, mbps)
	}

	c.mu.Lock()
	c.bandwidth[id] = d
	c.mu.Unlock()
	return d
}

// isRemote reports whether root sits on a filesystem type the probe
// should not touch. Errors from the partition table read degrade to
// "not remote" so a local disk still gets measured.
func (c *Classifier) isRemote(root string) bool {
	parts, err := c.partitions()
	if err != nil {
		util.DebugLog("Could not read partition table: %v", err)
		return false
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	// Longest mountpoint prefix wins
	best := ""
	bestType := ""
	for _, p := range parts {
		if strings.HasPrefix(abs, p.Mountpoint) && len(p.Mountpoint) > len(best) {
			best = p.Mountpoint
			bestType = strings.ToLower(p.Fstype)
		}
	}
	if bestType == "" {
		return false
	}
	return remoteFsTypes[bestType] || strings.HasPrefix(bestType, "fuse")
}

// probeBandwidth times a sequential read of up to 20 MiB from the
// largest file near the root. Returns false when no readable file is
// found or the read is too fast to time.
func (c *Classifier) probeBandwidth(root string) (float64, bool) {
	sample := findSampleFile(root)
	if sample == "" {
		return 0, false
	}

	f, err := os.Open(sample)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	buf := make([]byte, 1024*1024)
	var total int64
	start := time.Now()
	for total < probeReadLimit {
		n, err := f.Read(buf)
		total += int64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, false
		}
	}
	elapsed := time.Since(start)
	if total == 0 || elapsed <= 0 {
		return 0, false
	}

	mbps := float64(total) / (1024 * 1024) / elapsed.Seconds()
	return mbps, true
}

// findSampleFile walks a bounded slice of the tree under root and
// returns the largest regular file seen, preferring anything big
// enough to fill the probe.
func findSampleFile(root string) string {
	const maxVisited = 512

	var best string
	var bestSize int64
	visited := 0

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		visited++
		if visited > maxVisited {
			return filepath.SkipAll
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > bestSize {
			best = path
			bestSize = info.Size()
		}
		if bestSize >= probeReadLimit {
			return filepath.SkipAll
		}
		return nil
	})

	return best
}
