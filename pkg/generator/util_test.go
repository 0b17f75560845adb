package generator

import "testing"

func TestSeedUtils(t *testing.T) {
	t.Run("dereferenceSeed: nil の場合は 0 を返すのだ", func(t *testing.T) {
		if got := dereferenceSeed(nil); got != 0 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("dereferenceSeed: 値がある場合はその値を返すのだ", func(t *testing.T) {
		var val int64 = 999
		if got := dereferenceSeed(&val); got != 999 {
			t.Errorf("expected 999, got %v", got)
		}
	})

	t.Run("seedToPtrInt32: nil は nil のままなのだ", func(t *testing.T) {
		if got := seedToPtrInt32(nil); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("seedToPtrInt32: 値は int32 に変換されるのだ", func(t *testing.T) {
		var val int64 = 777
		got := seedToPtrInt32(&val)
		if got == nil || *got != 777 {
			t.Errorf("expected 777, got %v", got)
		}
	})
}

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		// IP リテラルは名前解決を伴わないのでオフラインでも検証できる
		{"正常なパブリックIP", "http://8.8.8.8/image.png", false},

		{"不正なスキーム", "gopher://example.com", true},
		{"fileスキームは直接許可しない", "file:///etc/passwd", true},
		{"ループバックホスト名", "http://localhost/admin", true},
		{"ループバックIP", "http://127.0.0.1/internal.png", true},
		{"プライベートIP (クラスA)", "http://10.255.255.254/metadata", true},
		{"リンクローカル (メタデータエンドポイント)", "http://169.254.169.254/latest/meta-data", true},
		{"名前解決できないドメイン", "http://this.should.not.exist.invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, err := IsSafeURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("IsSafeURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !safe {
				t.Errorf("%s: safe URL was flagged as unsafe", tt.url)
			}
			if tt.wantErr && safe {
				t.Errorf("%s: unsafe URL was flagged as safe", tt.url)
			}
		})
	}
}
