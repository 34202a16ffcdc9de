package updater

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/minio/selfupdate"
)

// applyBinary replaces the running executable with file. The feed checksum is
// verified again by selfupdate before the swap.
func applyBinary(file string, info Info) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := selfupdate.Options{}
	if info.SHA512 != "" {
		sum, err := base64.StdEncoding.DecodeString(info.SHA512)
		if err != nil {
			return fmt.Errorf("decode checksum: %w", err)
		}
		opts.Hash = crypto.SHA512
		opts.Checksum = sum
	}

	if err := selfupdate.Apply(f, opts); err != nil {
		if rerr := selfupdate.RollbackError(err); rerr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rerr))
		}
		return fmt.Errorf("apply update %s: %w", info.Version, err)
	}

	os.Remove(file)
	return nil
}

func relaunchSelf() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}
