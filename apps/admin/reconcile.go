package main

import "fmt"

// reconcile recomputes occupancy counters from active students and reports
// the rooms that drifted.
func (cli *commandLine) reconcile() error {
	corrected, err := cli.roomSvc.Reconcile()
	if err != nil {
		return err
	}
	if len(corrected) == 0 {
		fmt.Println("all rooms are consistent")
		return nil
	}
	for _, rm := range corrected {
		fmt.Printf("corrected room %s-%s: occupied=%d\n", rm.Block, rm.Number, rm.Occupied)
	}
	return nil
}
