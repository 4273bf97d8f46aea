package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/zoeyai/winmacro/pkg/cmdutil"
	"github.com/zoeyai/winmacro/pkg/executor"
	"github.com/zoeyai/winmacro/pkg/saves"
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "在多个角色之间同步存档配置",
}

// loadRegistry 读取账号注册表
func loadRegistry(cmd *cobra.Command) (*saves.Registry, error) {
	return saves.LoadRegistry(registryPath(cmd, saves.RegistryFile))
}

// addTargetFlags 目标角色目录参数
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("dir", nil, "目标角色目录 (可重复)，未指定时使用账号下的全部目录")
	cmd.Flags().String("account", "", "账号名 (默认当前账号)")
	cmd.Flags().Bool("no-backup", false, "写入前不生成 .bak 备份")
}

// targetDirs 目标目录，--dir 优先，否则取账号下的目录
func targetDirs(cmd *cobra.Command, reg *saves.Registry) ([]string, string, error) {
	if dirs, _ := cmd.Flags().GetStringSlice("dir"); len(dirs) > 0 {
		return dirs, "", nil
	}
	account, _ := cmd.Flags().GetString("account")
	if account == "" {
		account = reg.Current()
	}
	if account == "" {
		return nil, "", errors.New("没有目标: 请使用 --dir 或先添加账号")
	}
	dirs := reg.Dirs(account)
	if len(dirs) == 0 {
		return nil, account, fmt.Errorf("账号 %s 下没有角色目录", account)
	}
	return lo.Map(dirs, func(d saves.ConfigDir, _ int) string { return d.Path }), account, nil
}

// runSaveJob 在存档执行器上运行一次批量操作
func runSaveJob(name string, job func() (*saves.Report, error)) (*saves.Report, error) {
	exec := executor.New("saves", 1)
	defer exec.Close()

	var report *saves.Report
	task, err := exec.Submit(name, func(ctx context.Context) error {
		var err error
		report, err = job()
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := task.Wait(); err != nil {
		return nil, err
	}
	printReport(report)
	return report, report.Err()
}

func printReport(r *saves.Report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, o := range r.Outcomes {
		detail := o.Reason
		switch {
		case o.Err != nil:
			detail = o.Err.Error()
		case len(o.Fields) > 0:
			detail = strings.Join(lo.Map(o.Fields, func(k string, _ int) string { return saves.Label(k) }), ", ")
		}
		if o.Replaced > 0 {
			detail = fmt.Sprintf("替换 %d 处", o.Replaced)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", o.Status, o.Target, detail)
	}
	w.Flush()
	fmt.Printf("共 %d 个, 成功 %d (更新 %d), 跳过 %d, 失败 %d\n", r.Attempted, r.Succeeded, r.Updated, r.Skipped, r.Failed)
}

var mergeCmd = &cobra.Command{
	Use:   "merge <source-dir>",
	Short: "把源角色配置中选中的字段覆盖到目标角色",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, _ := cmd.Flags().GetStringSlice("fields")
		fields, err := saves.ResolveFields(names)
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		dirs, account, err := targetDirs(cmd, reg)
		if err != nil {
			return err
		}

		configName, _ := cmd.Flags().GetString("config")
		if !cmd.Flags().Changed("config") && account != "" {
			if acc, ok := reg.Account(account); ok && acc.LastConfigName != "" {
				configName = acc.LastConfigName
				fmt.Printf("使用上次的配置名: %s\n", configName)
			}
		}
		file := saves.SavePath("", configName)
		noBackup, _ := cmd.Flags().GetBool("no-backup")

		_, err = runSaveJob("merge", func() (*saves.Report, error) {
			return saves.NewEngine().Merge(saves.SavePath(args[0], configName), saves.SavePaths(dirs, file), fields, !noBackup)
		})

		if account != "" && cmd.Flags().Changed("config") {
			if e := reg.SetLastConfigName(account, configName); e == nil {
				if e := reg.Save(); e != nil {
					fmt.Printf("[WARN] 保存账号配置失败: %v\n", e)
				}
			}
		}
		return err
	},
}

var loadoutCmd = &cobra.Command{
	Use:   "loadout <source-dir> <name>",
	Short: "用源角色的同名装备方案替换目标角色的方案",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		dirs, _, err := targetDirs(cmd, reg)
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		noBackup, _ := cmd.Flags().GetBool("no-backup")

		_, err = runSaveJob("loadout", func() (*saves.Report, error) {
			return saves.NewEngine().MergeLoadout(joinFile(args[0], file), saves.SavePaths(dirs, file), saves.LoadoutKey, args[1], !noBackup)
		})
		return err
	},
}

var suitCmd = &cobra.Command{
	Use:   "suit <source-dir> <kind>",
	Short: "同步 diy.suit: 装备按方案名替换，超越/其他/觉醒整体替换",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, ok := saves.SuitKeys[args[1]]
		if !ok {
			return fmt.Errorf("不存在【%s】，可选: 装备, 超越, 其他, 觉醒", args[1])
		}
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		dirs, _, err := targetDirs(cmd, reg)
		if err != nil {
			return err
		}
		noBackup, _ := cmd.Flags().GetBool("no-backup")
		source := joinFile(args[0], saves.SuitFile)
		targets := saves.SavePaths(dirs, saves.SuitFile)

		_, err = runSaveJob("suit", func() (*saves.Report, error) {
			if key == saves.LoadoutKey {
				name, _ := cmd.Flags().GetString("name")
				return saves.NewEngine().MergeLoadout(source, targets, key, name, !noBackup)
			}
			return saves.NewEngine().Merge(source, targets, []string{key}, !noBackup)
		})
		return err
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "把所有装备方案中的物品名 old 改为 new",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		dirs, _, err := targetDirs(cmd, reg)
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		noBackup, _ := cmd.Flags().GetBool("no-backup")

		report, err := runSaveJob("rename", func() (*saves.Report, error) {
			return saves.NewEngine().RenameValue(saves.SavePaths(dirs, file), args[0], args[1], !noBackup)
		})
		if report != nil {
			fmt.Printf("更新了 %d/%d 个文件，共替换 %d 处\n", report.Updated, report.Attempted, report.Replaced)
		}
		return err
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <source-dir>",
	Short: "把源角色的存档文件整体复制到目标角色",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		dirs, _, err := targetDirs(cmd, reg)
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		noBackup, _ := cmd.Flags().GetBool("no-backup")

		_, err = runSaveJob("copy", func() (*saves.Report, error) {
			return saves.NewEngine().CopyFile(joinFile(args[0], file), saves.SavePaths(dirs, file), !noBackup)
		})
		return err
	},
}

var listLoadoutsCmd = &cobra.Command{
	Use:   "loadouts <dir>",
	Short: "列出角色的装备方案",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		list, err := saves.ListLoadouts(joinFile(args[0], file), saves.LoadoutKey)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Printf("该配置中没有%s数据\n", saves.LoadoutKey)
			return nil
		}
		for _, l := range list {
			fmt.Printf("%3d  %s\n", l.Index, l.Name)
		}
		return nil
	},
}

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "列出可同步的字段",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, f := range saves.Fields {
			fmt.Fprintf(w, "%s\t%s\n", f.Key, f.Label)
		}
		fmt.Fprintf(w, "item_filter\t物品设置 (物品设置1-4)\n")
		fmt.Fprintf(w, "all\t全部字段\n")
		w.Flush()
	},
}

var discoverCmd = &cobra.Command{
	Use:   "discover <config-root>",
	Short: "列出配置目录下的角色目录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dirs, err := saves.Discover(args[0])
		if err != nil {
			return err
		}
		for _, d := range dirs {
			fmt.Printf("%s\t%s\n", d.Name, d.Path)
		}

		account, _ := cmd.Flags().GetString("add-to")
		if account == "" {
			return nil
		}
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		if _, ok := reg.Account(account); !ok {
			if err := reg.AddAccount(account); err != nil {
				return err
			}
		}
		for _, d := range dirs {
			if err := reg.AddConfig(account, d.Path, d.Name); err != nil {
				return err
			}
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Printf("已添加 %d 个角色到账号 %s\n", len(dirs), account)
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <dir>",
	Short: "在文件管理器中打开角色目录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmdutil.OpenPath(args[0])
	},
}

func joinFile(dir, file string) string {
	return saves.SavePaths([]string{dir}, file)[0]
}

func init() {
	for _, c := range []*cobra.Command{mergeCmd, loadoutCmd, suitCmd, renameCmd, copyCmd} {
		addTargetFlags(c)
	}
	mergeCmd.Flags().StringSlice("fields", []string{"all"}, "要同步的字段 (键名、中文名或 item_filter)")
	mergeCmd.Flags().String("config", "", "配置名，指定时使用 <config>.json，否则 Default.save")

	loadoutCmd.Flags().String("file", saves.LoadoutSaveFile, "存档文件名")
	suitCmd.Flags().String("name", "存仓", "装备方案名")
	renameCmd.Flags().String("file", saves.LoadoutSaveFile, "存档文件名")
	copyCmd.Flags().String("file", saves.DefaultSaveFile, "存档文件名")
	listLoadoutsCmd.Flags().String("file", saves.LoadoutSaveFile, "存档文件名")
	discoverCmd.Flags().String("add-to", "", "把发现的角色添加到账号")

	savesCmd.AddCommand(mergeCmd, loadoutCmd, suitCmd, renameCmd, copyCmd,
		listLoadoutsCmd, fieldsCmd, discoverCmd, openCmd, accountsCmd)
	rootCmd.AddCommand(savesCmd)
}
