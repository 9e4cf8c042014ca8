// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tosca

import "testing"

func TestRevisions_ParseIsCaseInsensitive(t *testing.T) {
	tests := map[string]Revision{
		"istanbul": R07_Istanbul,
		"BERLIN":   R09_Berlin,
		"London":   R10_London,
		"cancun":   R13_Cancun,
	}
	for input, want := range tests {
		got, err := ParseRevision(input)
		if err != nil {
			t.Fatalf("failed to parse %q: %v", input, err)
		}
		if want != got {
			t.Errorf("unexpected revision for %q, wanted %v, got %v", input, want, got)
		}
	}
	if _, err := ParseRevision("Frontier"); err == nil {
		t.Errorf("expected unknown revision to be rejected")
	}
}

func TestRevisions_AllKnownRevisionsAreOrdered(t *testing.T) {
	all := GetAllKnownRevisions()
	if want, got := numRevisions, len(all); want != got {
		t.Fatalf("unexpected number of revisions, wanted %d, got %d", want, got)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1] >= all[i] {
			t.Errorf("revisions not ordered: %v before %v", all[i-1], all[i])
		}
	}
	if all[len(all)-1] != LatestRevision {
		t.Errorf("latest revision is not the newest known revision")
	}
}

