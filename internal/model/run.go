package model

import "time"

// FileStatus is the outcome of processing one input file.
type FileStatus string

const (
	FileStatusProcessed FileStatus = "processed" // 全部维度已统计
	FileStatusPartial   FileStatus = "partial"   // 部分维度缺少列
	FileStatusSkipped   FileStatus = "skipped"   // 文件被跳过
)

// FileResult is the tagged result of one file task: either data or a
// reason the file contributed nothing.
type FileResult struct {
	Path     string            `json:"path"`               // 文件路径
	Status   FileStatus        `json:"status"`             // 处理状态
	Reason   string            `json:"reason,omitempty"`   // 跳过/部分处理原因
	Err      error             `json:"-"`                  // 原始错误
	Partial  *PartialAggregate `json:"-"`                  // 文件级聚合结果
	Warnings []error           `json:"-"`                  // 非致命告警
	Duration time.Duration     `json:"duration,omitempty"` // 处理耗时
}

// NewSkippedResult creates a result for a file that contributed nothing.
func NewSkippedResult(path string, err error) *FileResult {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return &FileResult{
		Path:   path,
		Status: FileStatusSkipped,
		Reason: reason,
		Err:    err,
	}
}

// OK reports whether the file contributed data.
func (r *FileResult) OK() bool {
	return r != nil && r.Status != FileStatusSkipped && r.Partial != nil
}

// RunSummary provides aggregated statistics about a run.
type RunSummary struct {
	FilesTotal     int `json:"files_total"`     // 文件总数
	FilesProcessed int `json:"files_processed"` // 成功处理
	FilesPartial   int `json:"files_partial"`   // 部分处理
	FilesSkipped   int `json:"files_skipped"`   // 跳过
	RowsRead       int `json:"rows_read"`       // 读取行数
	RowsCounted    int `json:"rows_counted"`    // 计入统计的行数
	RowsExcluded   int `json:"rows_excluded"`   // 排除行数
	GapRows        int `json:"gap_rows"`        // 未匹配容量区间的行数
	Warnings       int `json:"warnings"`        // 告警数
}

// NewRunSummary creates a RunSummary from file results.
func NewRunSummary(files []*FileResult) *RunSummary {
	summary := &RunSummary{}
	for _, f := range files {
		if f == nil {
			continue
		}
		summary.FilesTotal++
		switch f.Status {
		case FileStatusProcessed:
			summary.FilesProcessed++
		case FileStatusPartial:
			summary.FilesPartial++
		case FileStatusSkipped:
			summary.FilesSkipped++
		}
		summary.Warnings += len(f.Warnings)
		if f.Partial != nil {
			summary.RowsRead += f.Partial.RowsRead
			summary.RowsCounted += f.Partial.Counted()
			summary.RowsExcluded += f.Partial.Excluded()
			summary.GapRows += f.Partial.RowsGap
		}
	}
	return summary
}

// RunReport is the complete result of one run, handed to report sinks.
type RunReport struct {
	RunID     string        `json:"run_id"`     // 运行 ID
	StartedAt time.Time     `json:"started_at"` // 开始时间
	Duration  time.Duration `json:"duration"`   // 耗时
	SourceDir string        `json:"source_dir"` // 源目录
	Version   string        `json:"version,omitempty"`

	Files     []*FileResult      `json:"files"`
	Aggregate *CombinedAggregate `json:"aggregate"`
	Summary   *RunSummary        `json:"summary"`
	Warnings  []error            `json:"-"` // 运行级告警（如 EmptyInputWarning）
}

// NewRunReport creates a RunReport with the given start time.
func NewRunReport(runID, sourceDir string, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:     runID,
		StartedAt: startedAt,
		SourceDir: sourceDir,
		Files:     make([]*FileResult, 0),
	}
}

// Finalize calculates the summary after all files have been added.
func (r *RunReport) Finalize(endTime time.Time) {
	r.Duration = endTime.Sub(r.StartedAt)
	r.Summary = NewRunSummary(r.Files)
}

// AllFailed reports whether there were input files and none contributed.
func (r *RunReport) AllFailed() bool {
	return r.Summary != nil && r.Summary.FilesTotal > 0 && r.Summary.FilesSkipped == r.Summary.FilesTotal
}

// SkippedFiles returns the files that contributed nothing.
func (r *RunReport) SkippedFiles() []*FileResult {
	var skipped []*FileResult
	for _, f := range r.Files {
		if f != nil && f.Status == FileStatusSkipped {
			skipped = append(skipped, f)
		}
	}
	return skipped
}
