// Command kfrun runs a linear Kalman filter over the measurements of a run
// description file and prints the estimate of every step.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/lkf-go/lkf/config"
	"github.com/lkf-go/lkf/kalman/kf"
	"gonum.org/v1/gonum/mat"
)

var (
	path  = flag.String("config", "", "path to run description (YAML or JSON)")
	gains = flag.Bool("gains", false, "print Kalman gains")
)

func mxFormat(m mat.Matrix) fmt.Formatter {
	return mat.Formatted(m, mat.Prefix("    "), mat.Squeeze())
}

func printTrajectory(w io.Writer, traj *kf.Trajectory, withGains bool) {
	for i := range traj.States {
		fmt.Fprintf(w, "step %d\n", i)
		fmt.Fprintf(w, "x = %v\n", mxFormat(traj.States[i].T()))
		fmt.Fprintf(w, "P = %v\n", mxFormat(traj.Covs[i]))
		if withGains && i > 0 {
			fmt.Fprintf(w, "K = %v\n", mxFormat(traj.Gains[i-1]))
		}
	}
}

func main() {
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	run, err := config.Load(*path)
	if err != nil {
		log.Fatalf("Failed to load run description: %v", err)
	}

	f, err := run.Filter()
	if err != nil {
		log.Fatalf("Failed to create filter: %v", err)
	}

	traj, err := f.Run(run.Measurements())
	if err != nil {
		log.Fatalf("Filter run failed: %v", err)
	}

	printTrajectory(os.Stdout, traj, *gains)
}
