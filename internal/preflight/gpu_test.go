package preflight

import "testing"

func TestParseNvidiaSMI(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []GPUInfo
	}{
		{
			"single gpu",
			"NVIDIA GeForce RTX 4090, 24564\n",
			[]GPUInfo{{Name: "NVIDIA GeForce RTX 4090", MemoryMB: 24564}},
		},
		{
			"two gpus",
			"NVIDIA RTX A6000, 49140\nNVIDIA GeForce RTX 3060, 12288\n",
			[]GPUInfo{
				{Name: "NVIDIA RTX A6000", MemoryMB: 49140},
				{Name: "NVIDIA GeForce RTX 3060", MemoryMB: 12288},
			},
		},
		{
			"name only",
			"Tesla T4\n",
			[]GPUInfo{{Name: "Tesla T4"}},
		},
		{
			"empty",
			"",
			nil,
		},
		{
			"blank lines",
			"\n\n",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNvidiaSMI(tt.output)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d GPUs, got %d: %v", len(tt.expected), len(got), got)
			}
			for i := range tt.expected {
				if got[i] != tt.expected[i] {
					t.Errorf("GPU %d = %+v, expected %+v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}
