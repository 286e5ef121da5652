package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/colorfulnotion/polyjuice/types"
)

// finalizeWithCkbCli merges the signed transaction into a ckb-cli working
// file and runs the remaining input-lock signing there, so further
// co-signers can keep using the standard wallet tooling. Returns the
// resulting working file content.
func finalizeWithCkbCli(receipt *types.TransactionReceipt, privkeyPath string) ([]byte, error) {
	txFile, err := os.CreateTemp("", "polyjuice-tx-*.json")
	if err != nil {
		return nil, err
	}
	txPath := txFile.Name()
	txFile.Close()
	defer os.Remove(txPath)

	fmt.Printf("[Command]: ckb-cli tx init --tx-file %s\n", txPath)
	if err := runCkbCli("tx", "init", "--tx-file", txPath); err != nil {
		return nil, err
	}

	// Replace the template transaction with ours.
	content, err := os.ReadFile(txPath)
	if err != nil {
		return nil, err
	}
	var workingFile map[string]json.RawMessage
	if err := json.Unmarshal(content, &workingFile); err != nil {
		return nil, fmt.Errorf("parse ckb-cli tx file: %w", err)
	}
	txBody, err := json.Marshal(&receipt.Tx)
	if err != nil {
		return nil, err
	}
	workingFile["transaction"] = txBody
	merged, err := json.MarshalIndent(workingFile, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(txPath, merged, 0o600); err != nil {
		return nil, err
	}

	fmt.Printf("[Command]: ckb-cli tx sign-inputs --privkey-path %s --tx-file %s --add-signatures --skip-check\n",
		privkeyPath, txPath)
	if err := runCkbCli("tx", "sign-inputs",
		"--privkey-path", privkeyPath,
		"--tx-file", txPath,
		"--add-signatures", "--skip-check"); err != nil {
		return nil, err
	}

	return os.ReadFile(txPath)
}

func runCkbCli(args ...string) error {
	output, err := exec.Command("ckb-cli", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ckb-cli %v failed: %v\n%s", args, err, output)
	}
	fmt.Println("success!")
	return nil
}
