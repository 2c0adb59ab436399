package model

import "strings"

// StandaloneCluster is the cluster name used for VMs outside any cluster.
const StandaloneCluster = "None - StandAlone"

// CleanedRow is a VM row after unit normalization, exclusion filtering and
// effective OS resolution. It is never mutated after creation.
type CleanedRow struct {
	Row         int     `json:"row"`          // 源数据行号（从 1 开始）
	Name        string  `json:"name"`         // 虚拟机名称
	EffectiveOS string  `json:"effective_os"` // 有效操作系统（优先 VMware Tools）
	Cluster     string  `json:"cluster"`      // 集群
	Folder      string  `json:"folder"`       // 文件夹
	VCenter     string  `json:"vcenter"`      // vCenter 短名
	PowerState  string  `json:"power_state"`  // 电源状态
	CapacityMB  float64 `json:"capacity_mb"`  // 磁盘容量（MB）
	CPUs        int     `json:"cpus"`         // CPU 数量
	MemoryMB    float64 `json:"memory_mb"`    // 内存（MB）
	Special     bool    `json:"special"`      // 是否为单独统计的操作系统
}

// ClusterName returns the cluster the row is reported under.
func (r *CleanedRow) ClusterName() string {
	if strings.TrimSpace(r.Cluster) == "" {
		return StandaloneCluster
	}
	return r.Cluster
}

// ClusterStats accumulates resource totals for one cluster.
type ClusterStats struct {
	VMCount  int     `json:"vm_count"`  // 虚拟机数量
	CPUs     int     `json:"cpus"`      // CPU 总数
	MemoryMB float64 `json:"memory_mb"` // 内存总量（MB）
	DiskMB   float64 `json:"disk_mb"`   // 磁盘总量（MB）
}

// AddRow accumulates one VM into the stats.
func (s *ClusterStats) AddRow(r *CleanedRow) {
	s.VMCount++
	s.CPUs += r.CPUs
	s.MemoryMB += r.MemoryMB
	s.DiskMB += r.CapacityMB
}

// Add accumulates another stats value into s.
func (s *ClusterStats) Add(o ClusterStats) {
	s.VMCount += o.VMCount
	s.CPUs += o.CPUs
	s.MemoryMB += o.MemoryMB
	s.DiskMB += o.DiskMB
}

// MemoryGB returns the memory total in GB.
func (s ClusterStats) MemoryGB() float64 {
	return s.MemoryMB / MBPerGB
}

// DiskTB returns the disk total in TB.
func (s ClusterStats) DiskTB() float64 {
	return s.DiskMB / MBPerTB
}

// LocationKey identifies a cluster within a vCenter.
type LocationKey struct {
	VCenter  string `json:"vcenter"`
	VCluster string `json:"vcluster"`
}

// StandaloneVM is a VM that belongs to no cluster.
type StandaloneVM struct {
	VCenter string `json:"vcenter"`
	Name    string `json:"name"`
}

// VCenterShortName returns the first DNS label of a VI SDK Server value.
func VCenterShortName(server string) string {
	server = strings.TrimSpace(server)
	if server == "" {
		return "Unknown"
	}
	if idx := strings.Index(server, "."); idx > 0 {
		return server[:idx]
	}
	return server
}

// VClusterKey normalizes a cluster name for location lookups.
func VClusterKey(cluster string) string {
	cluster = strings.ToLower(strings.TrimSpace(cluster))
	if cluster == "" {
		return strings.ToLower(StandaloneCluster)
	}
	return cluster
}

// LocationMapping maps a (vCenter, vCluster) pair to a country. Keys are
// stored lower case.
type LocationMapping map[LocationKey]string

// Set records the country of a cluster.
func (m LocationMapping) Set(vcenter, vcluster, country string) {
	m[mappingKey(LocationKey{VCenter: vcenter, VCluster: vcluster})] = strings.TrimSpace(country)
}

// Country returns the country of key, or "" when unmapped.
func (m LocationMapping) Country(key LocationKey) string {
	return m[mappingKey(key)]
}

func mappingKey(k LocationKey) LocationKey {
	return LocationKey{
		VCenter:  strings.ToLower(strings.TrimSpace(k.VCenter)),
		VCluster: strings.ToLower(strings.TrimSpace(k.VCluster)),
	}
}
