package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting pipeline":                     "パイプラインを開始します",
		"Fetched %d posts ending at %s":         "%[2]s までの %[1]d 件の投稿を取得しました",
		"Rendering markup":                      "マークアップをレンダリング中",
		"Rendered %dx%d with %d items in %d ms": "%dx%d (%d アイテム) を %d ms でレンダリングしました",
		"Output saved to %s":                    "出力を %s に保存しました",
		"Summary saved to %s":                   "サマリーを %s に保存しました",
		"Pipeline completed successfully":       "パイプラインが正常に完了しました",
		"Interrupted, shutting down...":         "中断されました。シャットダウン中...",
		"Chrome not found, installing Chromium": "Chromeが見つかりません。Chromiumをインストールします",

		// Engine pool (debug)
		"Engine acquired":                          "エンジンを取得しました",
		"Engine acquired (age %s)":                 "エンジンを取得しました (経過 %s)",
		"Engine slot emptied before use, retrying": "使用前にエンジンが破棄されました。再試行します",
		"Engine already created by another caller": "エンジンは別の呼び出しで作成済みです",
		"Replacing engine created %s ago":          "%s 前に作成したエンジンを置き換えます",
		"Engine lifetime elapsed, closing it":      "エンジンの寿命が切れたため終了します",
		"Closing engine on shutdown":               "シャットダウンのためエンジンを終了します",

		// Browser (debug)
		"Launching browser":                  "ブラウザを起動中",
		"Launching browser in headless mode": "ヘッドレスモードでブラウザを起動中",
		"Launching browser in visible mode":  "表示モードでブラウザを起動中",
		"Browser started: %s":                "ブラウザを起動しました: %s",
		"Browser closed":                     "ブラウザを閉じました",

		// Render and segment (debug)
		"Render completed in %d ms":                  "レンダリングが %d ms で完了しました",
		"Captured %dx%d with %d items at scale %.2f": "%dx%d (%d アイテム, スケール %.2f) をキャプチャしました",
		"Split %d items into %d images":              "%d アイテムを %d 枚の画像に分割しました",

		// Prefetch and markup (debug)
		"Downloading %d previews with %d workers":  "%d 件のプレビューを %d ワーカーでダウンロード中",
		"Downloaded %d previews, %d failed":        "%d 件のプレビューをダウンロードしました (%d 件失敗)",
		"Generated markup for %d posts (%d bytes)": "%d 件の投稿のマークアップを生成しました (%d バイト)",

		// Warnings
		"Engine crashed, discarding it":                 "エンジンがクラッシュしました。破棄します",
		"Engine closed during render, retrying (%d/%d)": "レンダリング中にエンジンが閉じられました。再試行します (%d/%d)",
		"Failed to download preview %s: %s":             "プレビュー %s のダウンロードに失敗しました: %s",
		"%d of %d previews could not be downloaded":     "%[2]d 件中 %[1]d 件のプレビューをダウンロードできませんでした",
		"Failed to save debug output: %s":               "デバッグ出力の保存に失敗しました: %s",
		"Failed to close engine: %s":                    "エンジンの終了に失敗しました: %s",
		"Failed to close crashed engine: %s":            "クラッシュしたエンジンの終了に失敗しました: %s",
		"Failed to close page: %s":                      "ページを閉じられませんでした: %s",
		"Failed to write summary: %s":                   "サマリーの書き込みに失敗しました: %s",

		// Errors
		"Failed to fetch thread: %s": "スレッドの取得に失敗しました: %s",
		"Failed to render: %s":       "レンダリングに失敗しました: %s",
		"Failed to write output: %s": "出力の書き込みに失敗しました: %s",
	})
}
