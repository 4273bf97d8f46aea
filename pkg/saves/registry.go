package saves

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// RegistryFile 账号注册表文件名
const RegistryFile = "accounts_config.json"

// 注册表错误
var (
	ErrAccountExists   = errors.New("账号已存在")
	ErrAccountNotFound = errors.New("账号不存在")
)

// Account 一个账号下的角色配置目录
type Account struct {
	// Configurations 目录路径 → 显示名
	Configurations map[string]string `json:"configurations"`
	Count          int               `json:"count"`
	// LastConfigName 上次合并使用的配置名
	LastConfigName string `json:"function4_config_name,omitempty"`
}

// ConfigDir 角色配置目录
type ConfigDir struct {
	Path string
	Name string
}

// Registry 账号注册表，保持账号的录入顺序
type Registry struct {
	path     string
	mu       sync.RWMutex
	order    []string
	accounts map[string]*Account
	current  string
}

// LoadRegistry 读取注册表，文件不存在时返回空表
//
// 当前账号取 current 字段，缺失时为第一个账号。
func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, accounts: make(map[string]*Account)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return r, fmt.Errorf("读取账号配置失败: %w", err)
	}

	root, err := ParseObject(data)
	if err != nil {
		return r, fmt.Errorf("解析账号配置失败: %w", err)
	}
	accounts, ok := root.Object("accounts")
	if !ok {
		return r, nil
	}
	for _, name := range accounts.Keys() {
		raw, _ := accounts.Get(name)
		acc := &Account{}
		if err := json.Unmarshal(raw, acc); err != nil {
			return r, fmt.Errorf("解析账号 %s 失败: %w", name, err)
		}
		if acc.Configurations == nil {
			acc.Configurations = map[string]string{}
		}
		r.order = append(r.order, name)
		r.accounts[name] = acc
	}
	if len(r.order) > 0 {
		r.current = r.order[0]
	}
	if cur, ok := root.String("current"); ok && r.accounts[cur] != nil {
		r.current = cur
	}
	return r, nil
}

// Path 注册表文件路径
func (r *Registry) Path() string {
	return r.path
}

// Save 以 UTF-8 JSON 写出，4 空格缩进
func (r *Registry) Save() error {
	r.mu.RLock()
	accounts := NewObject()
	for _, name := range r.order {
		acc := *r.accounts[name]
		acc.Count = len(acc.Configurations)
		if err := accounts.SetValue(name, acc); err != nil {
			r.mu.RUnlock()
			return err
		}
	}
	current := r.current
	r.mu.RUnlock()

	root := NewObject()
	if err := root.SetValue("accounts", accounts); err != nil {
		return err
	}
	if current != "" {
		if err := root.SetValue("current", current); err != nil {
			return err
		}
	}
	data, err := root.Indent()
	if err != nil {
		return fmt.Errorf("序列化账号配置失败: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败: %w", err)
		}
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("保存账号配置失败: %w", err)
	}
	return nil
}

// Accounts 账号名（录入顺序）
func (r *Registry) Accounts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Current 当前账号
func (r *Registry) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// SetCurrent 切换当前账号
func (r *Registry) SetCurrent(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[name]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	r.current = name
	return nil
}

// AddAccount 新增账号
func (r *Registry) AddAccount(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return errors.New("账号名不能为空")
	}
	if _, ok := r.accounts[name]; ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, name)
	}
	r.accounts[name] = &Account{Configurations: map[string]string{}}
	r.order = append(r.order, name)
	if r.current == "" {
		r.current = name
	}
	return nil
}

// RemoveAccount 删除账号，删除当前账号时切换到第一个
func (r *Registry) RemoveAccount(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[name]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	delete(r.accounts, name)
	r.order = lo.Without(r.order, name)
	if r.current == name {
		r.current = lo.FirstOr(r.order, "")
	}
	return nil
}

// AddConfig 给账号添加角色目录，displayName 为空时使用目录名
func (r *Registry) AddConfig(account, dir, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[account]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	if displayName == "" {
		displayName = filepath.Base(dir)
	}
	acc.Configurations[dir] = displayName
	return nil
}

// RemoveConfig 移除角色目录
func (r *Registry) RemoveConfig(account, dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[account]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	delete(acc.Configurations, dir)
	return nil
}

// SetLastConfigName 记录上次合并使用的配置名
func (r *Registry) SetLastConfigName(account, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acc, ok := r.accounts[account]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	acc.LastConfigName = name
	return nil
}

// Account 账号信息副本
func (r *Registry) Account(name string) (Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accounts[name]
	if !ok {
		return Account{}, false
	}
	out := *acc
	out.Configurations = make(map[string]string, len(acc.Configurations))
	for k, v := range acc.Configurations {
		out.Configurations[k] = v
	}
	out.Count = len(out.Configurations)
	return out, true
}

// Dirs 账号下的角色目录，按路径排序
func (r *Registry) Dirs(account string) []ConfigDir {
	acc, ok := r.Account(account)
	if !ok {
		return nil
	}
	dirs := make([]ConfigDir, 0, len(acc.Configurations))
	for p, n := range acc.Configurations {
		dirs = append(dirs, ConfigDir{Path: p, Name: n})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Path < dirs[j].Path })
	return dirs
}
