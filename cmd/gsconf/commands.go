package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gsconf-net/gsconf/pkg/apply"
	"github.com/gsconf-net/gsconf/pkg/device"
	"github.com/gsconf-net/gsconf/pkg/firmware"
	"github.com/gsconf-net/gsconf/pkg/model"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Identify the device model and firmware without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument()
			if err != nil {
				return err
			}
			cfg, hint, err := transportConfig(doc)
			if err != nil {
				return err
			}
			conn, err := device.Connect(cmd.Context(), cfg, hint)
			if err != nil {
				return err
			}
			defer conn.Close(cmd.Context())

			id := conn.Identity()
			fmt.Printf("Target:   %s\n", conn.Target())
			fmt.Printf("Family:   %s\n", conn.Family())
			fmt.Printf("Model:    %s\n", id.Model)
			fmt.Printf("Firmware: %s\n", id.Firmware)
			if id.Hostname != "" {
				fmt.Printf("Name:     %s\n", id.Hostname)
			}
			if id.MACAddress != "" {
				fmt.Printf("MAC:      %s\n", id.MACAddress)
			}
			return nil
		},
	}
}

func newFactsCmd() *cobra.Command {
	var sections []string
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Gather the device's running state and print it as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument()
			if err != nil {
				return err
			}
			cfg, hint, err := transportConfig(doc)
			if err != nil {
				return err
			}
			conn, err := device.Connect(cmd.Context(), cfg, hint)
			if err != nil {
				return err
			}
			defer conn.Close(cmd.Context())

			want := model.AllSections()
			if len(sections) > 0 {
				want = nil
				for _, s := range sections {
					want = append(want, model.Section(s))
				}
			}
			snap, err := conn.Gather(cmd.Context(), want)
			if err != nil {
				return err
			}
			for _, w := range snap.ParseWarnings {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
			}
			out, err := yaml.Marshal(snap)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&sections, "sections", nil, "limit gathering to these sections (ports, vlans, trunks, users, syslog, ntp)")
	return cmd
}

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the operations needed to reach the desired state",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runReconcile(cmd.Context(), false)
			if err != nil {
				return err
			}
			return printResult(res, true)
		},
	}
}

func newApplyCmd() *cobra.Command {
	var execute bool
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Reconcile the device toward the desired state",
		Long: `Reconcile the device toward the desired state.

Without -x this is the same as plan: the operations are rendered and
printed but nothing is submitted to the device.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runReconcile(cmd.Context(), execute)
			if err != nil {
				return err
			}
			if err := printResult(res, !execute); err != nil {
				return err
			}
			if !execute {
				fmt.Println("\nDry run; re-run with -x to apply.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&execute, "execute", "x", false, "actually submit changes to the device")
	return cmd
}

func runReconcile(ctx context.Context, execute bool) (*apply.Result, error) {
	if flagSpec == "" {
		return nil, fmt.Errorf("no spec file: set -f")
	}
	doc, err := loadDocument()
	if err != nil {
		return nil, err
	}
	cfg, hint, err := transportConfig(doc)
	if err != nil {
		return nil, err
	}

	gates := firmware.DefaultGates()
	if doc.GatesFile != "" {
		gates, err = firmware.LoadGates(doc.GatesFile)
		if err != nil {
			return nil, err
		}
	}

	conn, err := device.Connect(ctx, cfg, hint)
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	snap, err := conn.Gather(ctx, doc.Desired.Sections())
	if err != nil {
		return nil, err
	}
	for _, w := range snap.ParseWarnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	exec := &apply.Executor{
		Adapter:  conn.Adapter(),
		Target:   conn.Target(),
		Firmware: conn.Firmware(),
		Gates:    gates,
		DryRun:   !execute,
	}
	return apply.Reconcile(ctx, exec, snap, &doc.Desired)
}

func printResult(res *apply.Result, showCommands bool) error {
	for _, o := range res.Outcomes {
		fmt.Printf("%-8s %s\n", o.Status, o.Op)
		if o.Err != nil {
			fmt.Printf("         %v\n", o.Err)
		}
		if showCommands {
			for _, c := range o.Commands {
				fmt.Printf("         %s\n", c)
			}
		}
	}
	fmt.Println(res.Summary())
	if len(res.Failures()) > 0 {
		return fmt.Errorf("%d operation(s) failed", len(res.Failures()))
	}
	return nil
}
