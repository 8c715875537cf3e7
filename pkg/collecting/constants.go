package collecting

const (
	procDir           = "/proc"
	sysDir            = "/sys"
	defaultMountPoint = "/"
	loopbackInterface = "lo"
	bytesPerKilobyte  = 1024
	khzPerMhz         = 1000
)

// Keys used in the summary produced by Snapshot.Summary.
const (
	KeyCPUCount      = "cpu_count"
	KeyCPUFreq       = "cpu_freq"
	KeyVirtualMemory = "virtual_memory"
	KeyUsedMemory    = "used_memory"
	KeyFreeMemory    = "free_memory"
	KeyDiskUsage     = "disk_usage"
	KeyUsedDisk      = "used_disk"
	KeyFreeDisk      = "free_disk"
	KeyBytesSent     = "bytes_sent"
	KeyBytesRecv     = "bytes_recv"
	KeyUptime        = "uptime"
)
