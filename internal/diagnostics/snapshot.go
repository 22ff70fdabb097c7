// Package diagnostics reports host resource usage. The doctor command uses
// it to show whether the machine has headroom for provider CLI invocations.
package diagnostics

import (
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/jaypipes/ghw"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// gpuCacheTTL bounds how often the GPU inventory is re-read. Enumerating
// PCI devices is the slowest part of a snapshot and the answer never
// changes between collections.
const gpuCacheTTL = 5 * time.Second

// GPUDevice identifies one graphics adapter. Enumeration is best-effort:
// hosts without PCI access simply report none.
type GPUDevice struct {
	Name string `json:"name"`
}

// Snapshot is a point-in-time view of host resources. Values a probe could
// not read stay at their zero value.
type Snapshot struct {
	CPUModel   string  `json:"cpu_model,omitempty"`
	CPUCores   int     `json:"cpu_cores"`
	CPUThreads int     `json:"cpu_threads"`
	CPUPercent float64 `json:"cpu_percent"`

	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`

	DiskPath    string  `json:"disk_path"`
	DiskTotalGB float64 `json:"disk_total_gb"`
	DiskUsedGB  float64 `json:"disk_used_gb"`
	DiskPercent float64 `json:"disk_percent"`

	LoadAvg1  float64 `json:"load_avg_1"`
	LoadAvg5  float64 `json:"load_avg_5"`
	LoadAvg15 float64 `json:"load_avg_15"`

	GPUs []GPUDevice `json:"gpus,omitempty"`

	Goroutines  int     `json:"goroutines"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
}

// Collector gathers snapshots. Hardware identity is read once; CPU usage is
// computed from counter deltas, so the first snapshot reports zero.
type Collector struct {
	mu sync.Mutex

	diskPath string

	lastCPUTotal float64
	lastCPUIdle  float64

	infoCollected bool
	cpuModel      string
	cpuCores      int
	cpuThreads    int

	lastGPUUpdate time.Time
	gpuCache      []GPUDevice
}

// NewCollector creates a collector. diskPath is the filesystem to report
// usage for, typically the state directory; empty falls back to the root
// filesystem.
func NewCollector(diskPath string) *Collector {
	if diskPath == "" {
		diskPath = rootDiskPath()
	}
	return &Collector{diskPath: diskPath}
}

// Collect gathers a snapshot. Individual probe failures leave their fields
// zeroed rather than failing the snapshot.
func (c *Collector) Collect() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Snapshot
	c.collectHardware(&s)
	c.collectCPU(&s)
	c.collectMemory(&s)
	c.collectDisk(&s)
	c.collectLoad(&s)
	c.collectGPUs(&s)
	collectRuntime(&s)
	return s
}

func (c *Collector) collectHardware(s *Snapshot) {
	if !c.infoCollected {
		if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
			c.cpuModel = strings.TrimSpace(infos[0].ModelName)
		}
		if cores, err := cpu.Counts(false); err == nil && cores > 0 {
			c.cpuCores = cores
		}
		if threads, err := cpu.Counts(true); err == nil && threads > 0 {
			c.cpuThreads = threads
		}
		c.infoCollected = true
	}
	s.CPUModel = c.cpuModel
	s.CPUCores = c.cpuCores
	s.CPUThreads = c.cpuThreads
}

func (c *Collector) collectCPU(s *Snapshot) {
	times, err := cpu.Times(false)
	if err != nil || len(times) == 0 {
		return
	}

	t := times[0]
	total := t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
	idle := t.Idle + t.Iowait

	if c.lastCPUTotal > 0 {
		totalDelta := total - c.lastCPUTotal
		idleDelta := idle - c.lastCPUIdle
		if totalDelta > 0 {
			s.CPUPercent = (1 - idleDelta/totalDelta) * 100
		}
	}

	c.lastCPUTotal = total
	c.lastCPUIdle = idle
}

func (c *Collector) collectMemory(s *Snapshot) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	s.MemTotalMB = float64(vm.Total) / 1024 / 1024
	s.MemUsedMB = float64(vm.Used) / 1024 / 1024
	s.MemPercent = vm.UsedPercent
}

func (c *Collector) collectDisk(s *Snapshot) {
	s.DiskPath = c.diskPath
	usage, err := disk.Usage(c.diskPath)
	if err != nil {
		return
	}
	s.DiskTotalGB = float64(usage.Total) / 1024 / 1024 / 1024
	s.DiskUsedGB = float64(usage.Used) / 1024 / 1024 / 1024
	s.DiskPercent = usage.UsedPercent
}

func (c *Collector) collectLoad(s *Snapshot) {
	avg, err := load.Avg()
	if err != nil {
		return
	}
	s.LoadAvg1 = avg.Load1
	s.LoadAvg5 = avg.Load5
	s.LoadAvg15 = avg.Load15
}

func (c *Collector) collectGPUs(s *Snapshot) {
	now := time.Now()
	if now.Sub(c.lastGPUUpdate) < gpuCacheTTL && c.gpuCache != nil {
		s.GPUs = append([]GPUDevice(nil), c.gpuCache...)
		return
	}
	gpus := queryGPUs()
	c.gpuCache = gpus
	c.lastGPUUpdate = now
	s.GPUs = append([]GPUDevice(nil), gpus...)
}

func collectRuntime(s *Snapshot) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.Goroutines = runtime.NumGoroutine()
	s.HeapAllocMB = float64(ms.HeapAlloc) / 1024 / 1024
}

func queryGPUs() []GPUDevice {
	info, err := ghw.GPU()
	if err != nil || info == nil || len(info.GraphicsCards) == 0 {
		return nil
	}

	gpus := make([]GPUDevice, 0, len(info.GraphicsCards))
	for _, card := range info.GraphicsCards {
		name := ""
		if card.DeviceInfo != nil {
			switch {
			case card.DeviceInfo.Vendor != nil && card.DeviceInfo.Product != nil:
				name = strings.TrimSpace(card.DeviceInfo.Vendor.Name + " " + card.DeviceInfo.Product.Name)
			case card.DeviceInfo.Product != nil:
				name = strings.TrimSpace(card.DeviceInfo.Product.Name)
			case card.DeviceInfo.Vendor != nil:
				name = strings.TrimSpace(card.DeviceInfo.Vendor.Name)
			}
		}
		if name == "" {
			continue
		}
		gpus = append(gpus, GPUDevice{Name: name})
	}
	return gpus
}

func rootDiskPath() string {
	if runtime.GOOS == "windows" {
		drive := os.Getenv("SystemDrive")
		if drive == "" {
			drive = "C:"
		}
		return drive + "\\"
	}
	return "/"
}
