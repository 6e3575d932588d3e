package lightclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adityapk00/zecwallet-lite/modules/wallet"
	"github.com/adityapk00/zecwallet-lite/types"
)

// DoCommand dispatches one CLI command against the light client and returns
// a JSON string. User errors come back as {"error": "..."} rather than Go
// errors, so binding layers can pass the result through untouched.
func (lc *LightClient) DoCommand(ctx context.Context, cmd string, args string) string {
	switch cmd {
	case "sync":
		out, err := lc.DoSync(ctx)
		if err != nil {
			return errorJSON(err.Error())
		}
		return out

	case "rescan":
		out, err := lc.DoRescan(ctx)
		if err != nil {
			return errorJSON(err.Error())
		}
		return out

	case "syncstatus":
		return prettyJSON(lc.SyncStatus())

	case "send":
		recipients, err := parseSendArgs(args)
		if err != nil {
			return errorJSON(err.Error())
		}
		if _, err := lc.DoSync(ctx); err != nil {
			return errorJSON(err.Error())
		}
		txid, err := lc.DoSend(ctx, recipients)
		if err != nil {
			return errorJSON(err.Error())
		}
		return prettyJSON(map[string]string{"txid": txid})

	case "balance":
		return prettyJSON(lc.wallet.GetBalances())

	case "list":
		return prettyJSON(lc.wallet.ListTxs())

	case "notes":
		all := strings.TrimSpace(args) == "all"
		if args != "" && !all {
			return errorJSON(fmt.Sprintf("Invalid argument %q. Specify 'all' to include spent notes", args))
		}
		return prettyJSON(lc.wallet.DumpNotes(all))

	case "new":
		switch strings.TrimSpace(args) {
		case "z":
			addr, err := lc.wallet.NewZAddress()
			if err != nil {
				return errorJSON(err.Error())
			}
			return prettyJSON([]string{addr})
		case "t":
			addr, err := lc.wallet.NewTAddress()
			if err != nil {
				return errorJSON(err.Error())
			}
			return prettyJSON([]string{addr})
		}
		return errorJSON("Specify either 'z' or 't' as the address type")

	case "seed":
		phrase, err := lc.wallet.SeedPhrase()
		if err != nil {
			return errorJSON(err.Error())
		}
		return prettyJSON(map[string]interface{}{
			"seed":     phrase,
			"birthday": lc.wallet.Birthday(),
		})

	case "export":
		keys, err := lc.wallet.ExportKeys(strings.TrimSpace(args))
		if err != nil {
			return errorJSON(err.Error())
		}
		return prettyJSON(keys)

	case "info":
		info, err := lc.chain.GetInfo(ctx)
		if err != nil {
			return errorJSON(err.Error())
		}
		return prettyJSON(map[string]interface{}{
			"version":                   info.Version,
			"vendor":                    info.Vendor,
			"chain_name":                info.ChainName,
			"sapling_activation_height": info.SaplingActivationHeight,
			"consensus_branch_id":       info.ConsensusBranchID,
			"block_height":              info.BlockHeight,
			"taddr_support":             info.TaddrSupport,
		})

	case "save":
		hexWallet, err := lc.wallet.SaveToHex()
		if err != nil {
			return errorJSON(err.Error())
		}
		return prettyJSON(map[string]string{"wallet": hexWallet})

	case "encrypt":
		if err := lc.wallet.Encrypt(strings.TrimSpace(args)); err != nil {
			return errorJSON(err.Error())
		}
		return prettyJSON(map[string]string{"result": "success"})

	case "decrypt":
		if err := lc.wallet.RemoveEncryption(strings.TrimSpace(args)); err != nil {
			return errorJSON(err.Error())
		}
		return prettyJSON(map[string]string{"result": "success"})

	case "lock":
		if err := lc.wallet.Lock(); err != nil {
			return errorJSON(err.Error())
		}
		return prettyJSON(map[string]string{"result": "success"})

	case "unlock":
		if err := lc.wallet.Unlock(strings.TrimSpace(args)); err != nil {
			return errorJSON(err.Error())
		}
		return prettyJSON(map[string]string{"result": "success"})
	}

	return errorJSON(fmt.Sprintf("Unknown command %q", cmd))
}

// sendArg is the JSON shape of one `send` recipient.
type sendArg struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
	Memo    string  `json:"memo,omitempty"`
}

// parseSendArgs decodes the `send` argument: a JSON array of recipients.
func parseSendArgs(args string) ([]wallet.Recipient, error) {
	var parsed []sendArg
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return nil, fmt.Errorf("could not parse send arguments: %v", err)
	}
	recipients := make([]wallet.Recipient, 0, len(parsed))
	for _, a := range parsed {
		recipients = append(recipients, wallet.Recipient{
			Address: a.Address,
			Amount:  types.Amount(a.Amount * types.ZatsPerZEC),
			Memo:    a.Memo,
		})
	}
	return recipients, nil
}

func prettyJSON(v interface{}) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorJSON(err.Error())
	}
	return string(out)
}

func errorJSON(msg string) string {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return string(raw)
}
