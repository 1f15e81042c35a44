package ingest

import "testing"

func TestParseTopic(t *testing.T) {
	cases := []struct {
		topic       string
		wantSubject string
		wantChannel string
		wantOK      bool
	}{
		{"zias/devices/rfid-entry-01/sensor", "rfid-entry-01", "sensor", true},
		{"zias/devices/rfid-entry-01/status", "rfid-entry-01", "status", true},
		{"zias/mobile/student-1/beacon", "student-1", "beacon", true},

		{"other/devices/rfid-entry-01/sensor", "", "", false}, // wrong prefix
		{"zias/devices/rfid-entry-01", "", "", false},         // too short
		{"zias/devices/rfid-entry-01/sensor/extra", "", "", false},
		{"zias/devices//sensor", "", "", false}, // empty subject
		{"zias/mobile/student-1/sensor", "", "", false},
		{"zias/devices/rfid-entry-01/beacon", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		subject, channel, ok := parseTopic("zias", tc.topic)
		if subject != tc.wantSubject || channel != tc.wantChannel || ok != tc.wantOK {
			t.Errorf("parseTopic(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.topic, subject, channel, ok, tc.wantSubject, tc.wantChannel, tc.wantOK)
		}
	}
}
