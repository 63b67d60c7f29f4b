package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFixHeader(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "renames both account columns",
			in:   "Timestamp,From Bank,Account,To Bank,Account,Amount Received\n",
			want: "Timestamp,From Bank,FromAccount,To Bank,ToAccount,Amount Received\n",
		},
		{
			name: "already fixed stays unchanged",
			in:   "Timestamp,From Bank,FromAccount,To Bank,ToAccount,Amount Received\n",
			want: "Timestamp,From Bank,FromAccount,To Bank,ToAccount,Amount Received\n",
		},
		{
			name: "single occurrence only renames the first",
			in:   "Timestamp,Account,Amount\n",
			want: "Timestamp,FromAccount,Amount\n",
		},
		{
			name: "leading or trailing Account cells are untouched",
			in:   "Account,From Bank,Account,To Bank,Account\n",
			want: "Account,From Bank,FromAccount,To Bank,Account\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := fixHeader(tc.in); got != tc.want {
				t.Fatalf("fixHeader(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestUpdateLineUsesBinaryUnits(t *testing.T) {
	got := updateLine("HI-Small_Trans.csv", 1536*1024)
	want := "Updating HI-Small_Trans.csv   [size: 1.5 MiB]"
	if got != want {
		t.Fatalf("updateLine = %q, want %q", got, want)
	}
}

func TestRewriteHeaderLeavesBodyIntact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HI-Small_Trans.csv")
	content := "Timestamp,From Bank,Account,To Bank,Account,Amount Received\n" +
		"2022/01/15 08:30,11,A1,22,B1,1500.5\n" +
		"2022/01/15 09:00,11,A1,33,C1,20\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := rewriteHeader(path); err != nil {
		t.Fatalf("rewriteHeader: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "Timestamp,From Bank,FromAccount,To Bank,ToAccount,Amount Received\n" +
		"2022/01/15 08:30,11,A1,22,B1,1500.5\n" +
		"2022/01/15 09:00,11,A1,33,C1,20\n"
	if string(got) != want {
		t.Fatalf("rewritten file = %q, want %q", got, want)
	}
}
