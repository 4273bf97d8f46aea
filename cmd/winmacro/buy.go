package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zoeyai/winmacro/pkg/config"
)

var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "购买宏",
}

var buyListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出购买宏",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := configManager(cmd)
		cfg, err := manager.LoadBuy()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tHOTKEY\tPOSITIONS\tQUANTITY\tROUNDS\tCONFIRM")
		for _, m := range cfg.Macros {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n", m.Name, m.Hotkey, len(m.Positions), m.Quantity, m.Rounds, formatPoint(m.Confirm))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("配置文件: %s\n", manager.BuyConfigFile())
		return nil
	},
}

var buyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "写入默认购买宏配置",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := configManager(cmd)
		if _, err := os.Stat(manager.BuyConfigFile()); err == nil {
			if force, _ := cmd.Flags().GetBool("force"); !force {
				return fmt.Errorf("%s 已存在，使用 --force 覆盖", manager.BuyConfigFile())
			}
		}
		if err := manager.SaveBuy(config.DefaultBuyConfig()); err != nil {
			return err
		}
		fmt.Printf("已写入 %s\n", manager.BuyConfigFile())
		return nil
	},
}

var buyRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "执行一次购买宏 (屏幕坐标，前台鼠标键盘)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInput(false); err != nil {
			return err
		}
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg, err := a.manager.LoadBuy()
		if err != nil {
			return err
		}
		task, err := a.controller.RunBuy(cfg, args[0])
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()
		select {
		case <-task.Done():
		case <-ctx.Done():
			task.Cancel()
			<-task.Done()
		}
		return task.Err()
	},
}

func init() {
	buyInitCmd.Flags().Bool("force", false, "覆盖已有配置")
	addSessionFlags(buyRunCmd)
	buyCmd.AddCommand(buyListCmd, buyInitCmd, buyRunCmd)
	rootCmd.AddCommand(buyCmd)
}
