// Polyjuice service CLI:
//  1. `run` starts the chain indexer and the call service RPC, handing out
//     unsigned transaction receipts for create/call requests.
//  2. `sign-tx` runs the witness signing protocol over a receipt and merges
//     the result into a ckb-cli working file for any remaining co-signers.
//  3. `build-tx` serializes a single call frame for manual embedding.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/colorfulnotion/polyjuice/common"
	log "github.com/colorfulnotion/polyjuice/log"
	"github.com/colorfulnotion/polyjuice/rpc"
	"github.com/colorfulnotion/polyjuice/signer"
	"github.com/colorfulnotion/polyjuice/storage"
	"github.com/colorfulnotion/polyjuice/types"
)

var (
	Version = "dev"
	Commit  = "none"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "polyjuice",
		Short:   "Ethereum-compatibility layer for CKB",
		Version: fmt.Sprintf("%s (%s)", Version, Commit),
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(signTxCommand())
	rootCmd.AddCommand(buildTxCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cobra.Command {
	var (
		generator string
		config    string
		url       string
		listen    string
		dataPath  string
		logLevel  string
		debug     string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the polyjuice server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.InitLogger(logLevel)
			if debug != "" {
				log.EnableModules(debug)
			}

			cfg, err := types.LoadRunConfig(config, generator)
			if err != nil {
				return err
			}

			store, err := storage.NewPersistenceStore(dataPath)
			if err != nil {
				return err
			}
			defer store.Close()

			chain := rpc.DialChain(url)
			indexer := storage.NewIndexer(store, chain, cfg)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go indexer.Run(ctx)

			handler := rpc.NewHandler(storage.NewLoader(store), cfg)
			server := rpc.NewHTTPServer(handler)
			if err := server.Start(listen); err != nil {
				return err
			}
			defer server.Close()

			// Wait for exit
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			log.Info(log.RpcMonitoring, "exiting...")
			return nil
		},
	}
	cmd.Flags().StringVar(&generator, "generator", "", "The generator riscv binary")
	cmd.Flags().StringVar(&config, "config", "", "The config (json)")
	cmd.Flags().StringVar(&url, "url", "http://127.0.0.1:8114", "The ckb rpc url")
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8214", "The call service listen address")
	cmd.Flags().StringVar(&dataPath, "data", "./data", "The index database path")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	cmd.Flags().StringVar(&debug, "debug", "", "Comma-separated log modules to enable, or 'all'")
	cmd.MarkFlagRequired("generator")
	cmd.MarkFlagRequired("config")
	return cmd
}

func signTxCommand() *cobra.Command {
	var (
		receiptPath string
		privkeyPath string
		outputPath  string
		logLevel    string
	)
	cmd := &cobra.Command{
		Use:   "sign-tx",
		Short: "Sign transaction generated by polyjuice",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.InitLogger(logLevel)

			raw, err := os.ReadFile(receiptPath)
			if err != nil {
				return fmt.Errorf("read tx receipt %s: %w", receiptPath, err)
			}
			var receipt types.TransactionReceipt
			if err := json.Unmarshal(raw, &receipt); err != nil {
				return fmt.Errorf("parse tx receipt %s: %w", receiptPath, err)
			}

			keySigner, err := signer.NewFileSigner(privkeyPath)
			if err != nil {
				return err
			}

			fmt.Println("Building signature")
			if err := signer.SignTransaction(&receipt, keySigner); err != nil {
				return err
			}

			merged, err := finalizeWithCkbCli(&receipt, privkeyPath)
			if err != nil {
				return err
			}
			if outputPath != "" {
				return os.WriteFile(outputPath, merged, 0o644)
			}
			fmt.Println(string(merged))
			return nil
		},
	}
	cmd.Flags().StringVarP(&receiptPath, "tx-receipt", "t", "", "The transaction receipt file (json)")
	cmd.Flags().StringVarP(&privkeyPath, "privkey", "k", "", "The private key file (hex)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "The output file path")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	cmd.MarkFlagRequired("tx-receipt")
	cmd.MarkFlagRequired("privkey")
	return cmd
}

func buildTxCommand() *cobra.Command {
	var (
		callKind    string
		static      bool
		signatureIn string
		depth       uint32
		sender      string
		destination string
		codeIn      string
		inputIn     string
	)
	cmd := &cobra.Command{
		Use:   "build-tx",
		Short: "Build and serialize a eth transaction which will put into witness data",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := types.ParseCallKind(callKind)
			if err != nil {
				return err
			}
			senderAddr, err := types.HexToEoaAddress(sender)
			if err != nil {
				return fmt.Errorf("sender: %w", err)
			}
			destinationAddr, err := types.HexToContractAddress(destination)
			if err != nil {
				return fmt.Errorf("destination: %w", err)
			}
			code, err := parseHexBinary(codeIn)
			if err != nil {
				return fmt.Errorf("code: %w", err)
			}
			var input []byte
			if inputIn != "" {
				if input, err = parseHexBinary(inputIn); err != nil {
					return fmt.Errorf("input: %w", err)
				}
			}
			var flags uint32
			if static {
				flags = 1
			}

			witnessData := types.NewWitnessData(types.Program{
				Kind:        kind,
				Flags:       flags,
				Depth:       depth,
				TxOrigin:    senderAddr,
				Sender:      senderAddr,
				Destination: destinationAddr,
				Code:        code,
				Input:       input,
			})
			if signatureIn != "" {
				sig, err := parseHexBinary(signatureIn)
				if err != nil {
					return fmt.Errorf("signature: %w", err)
				}
				if len(sig) != types.SignatureLen {
					return fmt.Errorf("invalid data length for signature: %d", len(sig))
				}
				copy(witnessData.Signature[:], sig)
			}

			programData := witnessData.ProgramData()
			fmt.Printf("[length]: %x\n", common.Uint32ToBytes(uint32(len(programData))))
			fmt.Printf("[binary]: %x\n", programData)
			return nil
		},
	}
	cmd.Flags().StringVar(&callKind, "call-kind", "call", "The kind of the call (create|call)")
	cmd.Flags().BoolVar(&static, "static", false, "Is static call")
	cmd.Flags().StringVar(&signatureIn, "signature", "", "The signature (65 bytes)")
	cmd.Flags().Uint32Var(&depth, "depth", 0, "The call depth")
	cmd.Flags().StringVar(&sender, "sender", "0x1111111111111111111111111111111111111111", "The sender of the message")
	cmd.Flags().StringVar(&destination, "destination", "0x2222222222222222222222222222222222222222", "The destination of the message")
	cmd.Flags().StringVar(&codeIn, "code", "", "The code to create/call the contract, hex file path or hex string")
	cmd.Flags().StringVar(&inputIn, "input", "", "The input data to create/call the contract, hex file path or hex string")
	cmd.MarkFlagRequired("code")
	return cmd
}

// parseHexBinary accepts either a hex string or a path to a file holding one.
func parseHexBinary(input string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(input), "0x")
	if data := common.Hex2Bytes("0x" + trimmed); len(data) > 0 || trimmed == "" {
		if len(trimmed)%2 == 0 && isHex(trimmed) {
			return data, nil
		}
	}
	content, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("neither hex string nor readable file: %s", input)
	}
	trimmed = strings.TrimPrefix(strings.TrimSpace(string(content)), "0x")
	if len(trimmed)%2 != 0 || !isHex(trimmed) {
		return nil, fmt.Errorf("invalid hex in file %s", input)
	}
	return common.Hex2Bytes("0x" + trimmed), nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
