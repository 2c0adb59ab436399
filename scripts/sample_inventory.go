//go:build ignore
// +build ignore

// This script generates sample RVTools exports for manual verification.
// Run with: go run scripts/sample_inventory.go
// Then:     go run ./cmd/vmreport run -s sample -d sample/output -f excel,html
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

var infoHeaders = []string{
	"VM", "Powerstate", "Template", "SRM Placeholder", "CPUs", "Memory",
	"Total disk capacity MiB", "OS according to the configuration file",
	"OS according to the VMware Tools", "Cluster", "Folder", "Function",
	"Annotation", "VI SDK Server",
}

type sampleVM struct {
	name, power, template string
	cpus, memoryMB        int
	diskMB                int
	osConfig, osTools     string
	cluster, folder       string
	vcenter               string
}

type sampleFile struct {
	name     string
	vms      []sampleVM
	clusters map[string]int // 集群 -> 主机数
}

func main() {
	dir := "sample"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	for _, sf := range createSampleData() {
		path := filepath.Join(dir, sf.name)
		if err := writeWorkbook(sf, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("✅ Sample export generated: %s (%d VMs)\n", path, len(sf.vms))
	}

	// A broken file, skipped with a reason in the Files table
	broken := filepath.Join(dir, "broken.xlsx")
	if err := os.WriteFile(broken, []byte("not a workbook"), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", broken, err)
		os.Exit(1)
	}
	fmt.Printf("✅ Broken export generated: %s\n", broken)

	fmt.Println("\nPlease run the report and verify:")
	fmt.Println("  - broken.xlsx is listed as skipped")
	fmt.Println("  - the template VM is excluded")
	fmt.Println("  - Photon OS VMs appear under All Capacities")
	fmt.Println("  - the 0 MB VM appears in the zero capacity section")
}

func createSampleData() []sampleFile {
	return []sampleFile{
		{
			name: "rvtools_vc01.xlsx",
			vms: []sampleVM{
				{"web-01", "poweredOn", "False", 4, 8192, 102400, "Microsoft Windows Server 2019 (64-bit)", "", "SGdc1h1-PROD", "/PROD/web", "vc01.example.com"},
				{"web-02", "poweredOn", "False", 4, 8192, 204800, "Microsoft Windows Server 2019 (64-bit)", "", "SGdc1h1-PROD", "/PROD/web", "vc01.example.com"},
				{"db-01", "poweredOn", "False", 16, 65536, 3145728, "Red Hat Enterprise Linux 8 (64-bit)", "", "SGdc1h1-PROD", "/PROD/db", "vc01.example.com"},
				{"k8s-node-01", "poweredOn", "False", 8, 16384, 51200, "Other 3.x or later Linux (64-bit)", "VMware Photon OS (64-bit)", "SGdc1h1-PROD", "/PROD/k8s", "vc01.example.com"},
				{"tpl-rhel8", "poweredOff", "True", 2, 4096, 40960, "Red Hat Enterprise Linux 8 (64-bit)", "", "SGdc1h1-PROD", "/Templates", "vc01.example.com"},
			},
			clusters: map[string]int{"SGdc1h1-PROD": 6},
		},
		{
			name: "rvtools_vc02.xlsx",
			vms: []sampleVM{
				{"uat-app-01", "poweredOn", "False", 2, 4096, 81920, "Ubuntu Linux (64-bit)", "", "HKdc9-UAT", "/UAT/app", "vc02.example.com"},
				{"uat-app-02", "poweredOff", "False", 2, 4096, 81920, "Ubuntu Linux (64-bit)", "", "HKdc9-UAT", "/UAT/app", "vc02.example.com"},
				{"dev-scratch", "poweredOn", "False", 1, 2048, 0, "Ubuntu Linux (64-bit)", "", "HKdc9-DEV", "/DEV", "vc02.example.com"},
				{"esx-local-01", "poweredOn", "False", 2, 2048, 30720, "CentOS 7 (64-bit)", "", "", "/Standalone", "vc02.example.com"},
			},
			clusters: map[string]int{"HKdc9-UAT": 3, "HKdc9-DEV": 2},
		},
	}
}

func writeWorkbook(sf sampleFile, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "vInfo"); err != nil {
		return err
	}
	if err := f.SetSheetRow("vInfo", "A1", &infoHeaders); err != nil {
		return err
	}
	for i, vm := range sf.vms {
		row := []any{
			vm.name, vm.power, vm.template, "False", vm.cpus, vm.memoryMB,
			vm.diskMB, vm.osConfig, vm.osTools, vm.cluster, vm.folder, "",
			"", vm.vcenter,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow("vInfo", cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet("vCluster"); err != nil {
		return err
	}
	if err := f.SetSheetRow("vCluster", "A1", &[]any{"Name", "NumHosts"}); err != nil {
		return err
	}
	row := 2
	for name, hosts := range sf.clusters {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow("vCluster", cell, &[]any{name, hosts}); err != nil {
			return err
		}
		row++
	}

	return f.SaveAs(path)
}
