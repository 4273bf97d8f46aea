package saves

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/zoeyai/winmacro/internal/logger"
)

// 错误定义
var (
	ErrSourceUnreadable  = errors.New("源配置无法读取")
	ErrTargetUnreadable  = errors.New("目标配置无法读取")
	ErrTargetWriteFailed = errors.New("目标配置写入失败")
	ErrLoadoutNotFound   = errors.New("未找到装备方案")
)

// Status 单个目标的处理结果
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome 单个目标的结果
type Outcome struct {
	Target string `json:"target"`
	Status Status `json:"status"`
	// Fields 被覆盖的字段
	Fields []string `json:"fields,omitempty"`
	// Replaced 替换的值数量
	Replaced int    `json:"replaced,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Err      error  `json:"-"`
}

// Report 一次批量操作的汇总
type Report struct {
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Updated   int       `json:"updated"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Replaced  int       `json:"replaced"`
	Outcomes  []Outcome `json:"outcomes"`
}

func (r *Report) add(o Outcome) {
	r.Attempted++
	switch o.Status {
	case StatusUpdated:
		r.Succeeded++
		r.Updated++
	case StatusUnchanged:
		r.Succeeded++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	r.Replaced += o.Replaced
	r.Outcomes = append(r.Outcomes, o)
}

// Err 合并所有失败目标的错误
func (r *Report) Err() error {
	errs := lo.FilterMap(r.Outcomes, func(o Outcome, _ int) (error, bool) {
		return o.Err, o.Status == StatusFailed && o.Err != nil
	})
	return errors.Join(errs...)
}

// Engine 存档复制引擎
//
// 每个目标独立处理，单个目标失败不影响其余目标。
type Engine struct {
	writeFile func(name string, data []byte, perm os.FileMode) error
}

// NewEngine 创建引擎
func NewEngine() *Engine {
	return &Engine{writeFile: os.WriteFile}
}

// mutation 修改已解析的目标，返回是否需要写回
type mutation func(doc *Document, o *Outcome) (bool, error)

// Merge 把 source 中存在的 fields 整值覆盖到每个目标
//
// source 中不存在的字段不会触碰目标。
func (e *Engine) Merge(source string, targets []string, fields []string, backup bool) (*Report, error) {
	src, err := loadSource(source)
	if err != nil {
		return nil, err
	}
	present := lo.Filter(fields, func(k string, _ int) bool { return src.Has(k) })
	for _, k := range lo.Without(fields, present...) {
		logger.Info("源配置中没有 %s (%s)，跳过该字段", Label(k), k)
	}

	return e.batch("MERGE", source, targets, backup, func(doc *Document, o *Outcome) (bool, error) {
		for _, k := range present {
			v, _ := src.Get(k)
			doc.Set(k, v)
			o.Fields = append(o.Fields, k)
			logger.Info("已更新: %s 的 %s 配置", doc.Path, Label(k))
		}
		return len(o.Fields) > 0, nil
	}), nil
}

// MergeLoadout 用 source 中名为 name 的方案数据替换每个目标中同名方案的 data
func (e *Engine) MergeLoadout(source string, targets []string, listKey, name string, backup bool) (*Report, error) {
	src, err := loadSource(source)
	if err != nil {
		return nil, err
	}
	list, ok := ParseLoadouts(src.Object, listKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s 中没有 %s 数据", ErrLoadoutNotFound, source, listKey)
	}
	item, ok := list.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLoadoutNotFound, name)
	}
	data, ok := item.Get("data")
	if !ok {
		return nil, fmt.Errorf("%w: %s 没有 data", ErrLoadoutNotFound, name)
	}

	return e.batch("LOADOUT", source, targets, backup, func(doc *Document, o *Outcome) (bool, error) {
		tl, ok := ParseLoadouts(doc.Object, listKey)
		if !ok {
			o.Reason = fmt.Sprintf("没有%s数据", listKey)
			return false, nil
		}
		target, ok := tl.Find(name)
		if !ok {
			o.Reason = fmt.Sprintf("配置 %s 中未找到名称匹配的装备", doc.Path)
			return false, nil
		}
		target.Set("data", data)
		if err := doc.SetValue(listKey, tl); err != nil {
			return false, err
		}
		o.Fields = []string{listKey}
		logger.Info("已更新: %s 的装备方案 %s", doc.Path, name)
		return true, nil
	}), nil
}

// RenameValue 把所有方案 data 中等于 oldValue 的值改为 newValue，比较前统一间隔号
func (e *Engine) RenameValue(targets []string, oldValue, newValue string, backup bool) (*Report, error) {
	oldValue, newValue = NormalizeName(oldValue), NormalizeName(newValue)
	if oldValue == "" {
		return nil, errors.New("原名称不能为空")
	}

	return e.batch("RENAME", "", targets, backup, func(doc *Document, o *Outcome) (bool, error) {
		list, ok := ParseLoadouts(doc.Object, LoadoutKey)
		if !ok {
			o.Reason = fmt.Sprintf("没有%s数据", LoadoutKey)
			return false, nil
		}
		for _, item := range list.Objects() {
			data, ok := item.Object("data")
			if !ok {
				continue
			}
			changed := 0
			for _, k := range data.Keys() {
				v, ok := data.String(k)
				if !ok || NormalizeName(v) != oldValue {
					continue
				}
				if err := data.SetValue(k, newValue); err != nil {
					return false, err
				}
				changed++
			}
			if changed > 0 {
				if err := item.SetValue("data", data); err != nil {
					return false, err
				}
				o.Replaced += changed
			}
		}
		if o.Replaced == 0 {
			return false, nil
		}
		if err := doc.SetValue(LoadoutKey, list); err != nil {
			return false, err
		}
		logger.Info("已更新: %s 替换 %d 处", doc.Path, o.Replaced)
		return true, nil
	}), nil
}

// CopyFile 用 source 整体覆盖每个目标，保留修改时间
func (e *Engine) CopyFile(source string, targets []string, backup bool) (*Report, error) {
	start := time.Now()
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, source, err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, source, err)
	}

	report := &Report{}
	for _, target := range excludeSource(source, targets) {
		o := Outcome{Target: target, Status: StatusUpdated}
		if _, err := os.Stat(target); err == nil && backup {
			if err := backupFile(target); err != nil {
				o.Status, o.Err = StatusFailed, fmt.Errorf("%w: %s: %v", ErrTargetWriteFailed, target, err)
				logger.Error("备份失败: %v", o.Err)
				report.add(o)
				continue
			}
		}
		if err := e.writeFile(target, raw, 0644); err != nil {
			o.Status, o.Err = StatusFailed, fmt.Errorf("%w: %s: %v", ErrTargetWriteFailed, target, err)
			logger.Error("复制失败: %v", o.Err)
			if backup {
				restore(target)
			}
			report.add(o)
			continue
		}
		_ = os.Chtimes(target, info.ModTime(), info.ModTime())
		logger.Info("已复制: %s -> %s", source, target)
		report.add(o)
	}

	finish("COPY", report, start)
	return report, nil
}

// ListLoadouts 列出存档中的装备方案
func ListLoadouts(path, listKey string) ([]Loadout, error) {
	doc, err := loadSource(path)
	if err != nil {
		return nil, err
	}
	list, ok := ParseLoadouts(doc.Object, listKey)
	if !ok {
		return nil, nil
	}
	return list.Loadouts(), nil
}

// batch 对每个目标执行 mutate，负责读取、备份、写回与回滚
func (e *Engine) batch(category, source string, targets []string, backup bool, mutate mutation) *Report {
	start := time.Now()
	report := &Report{}
	for _, target := range excludeSource(source, targets) {
		report.add(e.apply(target, backup, mutate))
	}
	finish(category, report, start)
	return report
}

func (e *Engine) apply(target string, backup bool, mutate mutation) Outcome {
	o := Outcome{Target: target}

	raw, err := os.ReadFile(target)
	if errors.Is(err, os.ErrNotExist) {
		o.Status, o.Reason = StatusSkipped, "文件不存在"
		logger.Info("跳过: %s 不存在", target)
		return o
	}
	fail := func(kind error, err error) Outcome {
		o.Status, o.Err = StatusFailed, fmt.Errorf("%w: %s: %v", kind, target, err)
		logger.Error("%v", o.Err)
		return o
	}
	if err != nil {
		return fail(ErrTargetUnreadable, err)
	}
	doc, err := ParseDocument(target, raw)
	if err != nil {
		return fail(ErrTargetUnreadable, err)
	}

	if backup {
		if err := writeBackup(target, raw); err != nil {
			return fail(ErrTargetWriteFailed, fmt.Errorf("备份失败: %w", err))
		}
	}

	changed, err := mutate(doc, &o)
	if err != nil {
		return fail(ErrTargetWriteFailed, err)
	}
	if !changed {
		if o.Reason != "" {
			o.Status = StatusSkipped
			logger.Info("跳过: %s", o.Reason)
		} else {
			o.Status = StatusUnchanged
		}
		return o
	}

	out, err := doc.Encode()
	if err != nil {
		return fail(ErrTargetWriteFailed, err)
	}
	if err := e.writeFile(target, out, 0644); err != nil {
		if backup {
			restore(target)
		}
		return fail(ErrTargetWriteFailed, err)
	}

	o.Status = StatusUpdated
	return o
}

// loadSource 读取源配置，任何失败都是 ErrSourceUnreadable
func loadSource(path string) (*Document, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}
	return doc, nil
}

// excludeSource 去掉与源相同的目标并去重
func excludeSource(source string, targets []string) []string {
	src := cleanPath(source)
	out := lo.Filter(targets, func(t string, _ int) bool {
		return source == "" || cleanPath(t) != src
	})
	return lo.UniqBy(out, cleanPath)
}

func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return strings.ToLower(filepath.Clean(p))
}

// BackupPath 备份文件路径
func BackupPath(path string) string {
	return path + ".bak"
}

// backupFile 逐字节复制 path 到 path.bak
func backupFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return writeBackup(path, raw)
}

func writeBackup(path string, raw []byte) error {
	if err := os.WriteFile(BackupPath(path), raw, 0644); err != nil {
		return err
	}
	logger.Info("已备份文件: %s", BackupPath(path))
	return nil
}

// restore 尽力从备份恢复
func restore(path string) {
	raw, err := os.ReadFile(BackupPath(path))
	if err != nil {
		logger.Error("恢复失败: %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		logger.Error("恢复失败: %s: %v", path, err)
		return
	}
	logger.Warn("已从备份恢复: %s", path)
}

func finish(category string, r *Report, start time.Time) {
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	detail := fmt.Sprintf("共 %d 个, 成功 %d (更新 %d), 跳过 %d, 失败 %d",
		r.Attempted, r.Succeeded, r.Updated, r.Skipped, r.Failed)
	if r.Replaced > 0 {
		detail += fmt.Sprintf(", 替换 %d 处", r.Replaced)
	}
	logger.LogEvent(category, r.Failed == 0, elapsed, detail)
}
