package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "管理账号与角色目录",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		names := reg.Accounts()
		if len(names) == 0 {
			fmt.Println("还没有账号，使用 accounts add <name> 添加")
			return nil
		}
		for _, name := range names {
			mark := " "
			if name == reg.Current() {
				mark = "*"
			}
			acc, _ := reg.Account(name)
			fmt.Printf("%s %s (%d 个角色)\n", mark, name, acc.Count)
			for _, d := range reg.Dirs(name) {
				fmt.Printf("    %s\t%s\n", d.Name, d.Path)
			}
		}
		return nil
	},
}

// registryCommand 修改注册表后保存
func registryCommand(use, short string, nargs int, fn func(cmd *cobra.Command, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE:  fn,
	}
}

func init() {
	add := registryCommand("add <name>", "添加账号", 1, func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		if err := reg.AddAccount(args[0]); err != nil {
			return err
		}
		return reg.Save()
	})
	remove := registryCommand("remove <name>", "删除账号", 1, func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		if err := reg.RemoveAccount(args[0]); err != nil {
			return err
		}
		return reg.Save()
	})
	use := registryCommand("use <name>", "切换当前账号", 1, func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		if err := reg.SetCurrent(args[0]); err != nil {
			return err
		}
		fmt.Printf("当前账号: %s\n", args[0])
		return reg.Save()
	})
	addDir := registryCommand("add-dir <account> <dir>", "给账号添加角色目录", 2, func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		if err := reg.AddConfig(args[0], args[1], name); err != nil {
			return err
		}
		return reg.Save()
	})
	addDir.Flags().String("name", "", "显示名 (默认目录名)")
	removeDir := registryCommand("remove-dir <account> <dir>", "移除角色目录", 2, func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		if err := reg.RemoveConfig(args[0], args[1]); err != nil {
			return err
		}
		return reg.Save()
	})

	accountsCmd.AddCommand(add, remove, use, addDir, removeDir)
}
