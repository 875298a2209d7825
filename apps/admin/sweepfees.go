package main

import "fmt"

func (cli *commandLine) sweepFees() error {
	marked, err := cli.feeSvc.SweepOverdue()
	if err != nil {
		return err
	}
	fmt.Printf("%d fee(s) marked overdue\n", marked)
	return nil
}
