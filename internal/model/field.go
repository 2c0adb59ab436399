// Package model provides data models for the VM inventory report tool.
package model

// Field identifies a semantic column of an inventory worksheet.
type Field string

const (
	FieldOSConfig       Field = "os_config"       // OS according to the configuration file
	FieldOSTools        Field = "os_tools"        // OS according to the VMware Tools
	FieldCapacity       Field = "capacity"        // Total disk capacity MiB/MB
	FieldCluster        Field = "cluster"         // 集群
	FieldCPU            Field = "cpu"             // CPU 数量
	FieldMemory         Field = "memory"          // 内存（MB）
	FieldPowerState     Field = "power_state"     // 电源状态
	FieldName           Field = "name"            // 虚拟机名称
	FieldFolder         Field = "folder"          // 文件夹
	FieldTemplate       Field = "template"        // 模板标记
	FieldSRMPlaceholder Field = "srm_placeholder" // SRM 占位标记
	FieldFunction       Field = "function"        // 业务功能
	FieldAnnotation     Field = "annotation"      // 备注
	FieldVCenter        Field = "vcenter"         // VI SDK Server
)

// AllFields lists every field in resolution order.
var AllFields = []Field{
	FieldOSConfig,
	FieldOSTools,
	FieldCapacity,
	FieldCluster,
	FieldCPU,
	FieldMemory,
	FieldPowerState,
	FieldName,
	FieldFolder,
	FieldTemplate,
	FieldSRMPlaceholder,
	FieldFunction,
	FieldAnnotation,
	FieldVCenter,
}

// Axis is an independent aggregation dimension. A file missing the columns
// of one axis can still contribute to the others.
type Axis string

const (
	AxisOSCapacity Axis = "os_capacity" // OS x capacity range
	AxisCluster    Axis = "cluster"     // per-cluster resource totals
)

// RequiredFields returns the fields an axis cannot be computed without.
func (a Axis) RequiredFields() []Field {
	switch a {
	case AxisOSCapacity:
		return []Field{FieldOSConfig, FieldCapacity}
	case AxisCluster:
		return []Field{FieldCluster}
	default:
		return nil
	}
}

// CapacityUnit is the unit of the capacity column found in a worksheet.
type CapacityUnit string

const (
	UnitMiB CapacityUnit = "MiB"
	UnitMB  CapacityUnit = "MB"
)

// MiBToMB converts mebibytes to megabytes.
const MiBToMB = 1.048576

// Unit conversions used by cluster totals.
const (
	MBPerGB = 1024.0
	MBPerTB = 1048576.0
)
