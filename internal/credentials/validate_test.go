package credentials

import (
	"strings"
	"testing"

	"github.com/muurk/netmgr/internal/fault"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      Credentials
		wantErr bool
		wantMsg string
	}{
		{"valid", Credentials{NetworkName: "Home", Passphrase: "secret1"}, false, ""},
		{"open network", Credentials{NetworkName: "Cafe"}, false, ""},
		{"empty name", Credentials{Passphrase: "x"}, true, MsgNameRequired},
		{"whitespace name", Credentials{NetworkName: "   "}, true, MsgNameRequired},
		{"32 bytes", Credentials{NetworkName: strings.Repeat("a", 32)}, false, ""},
		{"33 bytes", Credentials{NetworkName: strings.Repeat("a", 33)}, true, MsgNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Normalize(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if !fault.IsValidation(err) {
				t.Errorf("error kind = %v, want validation", err)
			}
			if got := fault.ShortMessage(err); got != tt.wantMsg {
				t.Errorf("ShortMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestNormalizeKeepsPassphrase(t *testing.T) {
	got := Normalize(Credentials{NetworkName: "  Home ", Passphrase: " p w "})
	if got.NetworkName != "Home" {
		t.Errorf("NetworkName = %q, want %q", got.NetworkName, "Home")
	}
	if got.Passphrase != " p w " {
		t.Errorf("Passphrase = %q, want it untouched", got.Passphrase)
	}
}
