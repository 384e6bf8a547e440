package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Commands
		"Render conversation threads to PNG images": "会話スレッドをPNG画像にレンダリング",
		"Render a thread from a posts file":         "投稿ファイルのスレッドをレンダリング",
		"Render a ready-made HTML document":         "作成済みのHTML文書をレンダリング",
		"Print the HTML generated for a thread":     "スレッドから生成したHTMLを出力",
		"Start the HTTP API":                        "HTTP APIを起動",

		// Global flags
		"YAML configuration file":                     "YAML設定ファイル",
		"Device preset (%s, %s)":                      "デバイスプリセット（%s, %s）",
		"Browser viewport width":                      "ブラウザのビューポート幅",
		"Browser viewport height":                     "ブラウザのビューポート高さ",
		"Device scale factor (mobile emulation only)": "デバイススケール係数（モバイルエミュレーション時のみ）",
		"Color scheme (dark, light, no-preference)":   "カラースキーム（dark, light, no-preference）",
		"Locale, e.g. en-US":                          "ロケール（例: en-US）",
		"Timezone ID, e.g. Europe/Berlin":             "タイムゾーンID（例: Asia/Tokyo）",
		"Run browser in non-headless mode":            "ブラウザを非ヘッドレスモードで実行",
		"Path to Chrome executable":                   "Chrome実行ファイルのパス",
		"Launch a browser per render":                 "レンダリングごとにブラウザを起動",
		"Enable debug output":                         "デバッグ出力を有効化",
		"Directory for debug output":                  "デバッグ出力のディレクトリ",
		"Log level (debug, info, warn, error)":        "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                     "全てのログ出力を抑制",
		"Listen address (default: %s)":                "待ち受けアドレス（デフォルト: %s）",
		"Posts file (YAML or JSON)":                   "投稿ファイル（YAMLまたはJSON）",
		"Write to a file instead of standard output":  "標準出力の代わりにファイルへ書き込む",

		// Thread flags
		"Maximum number of posts, counted from the given post": "指定した投稿から数えた最大投稿数",
		"Render the post alone without thread connectors":      "スレッドの接続線なしで投稿のみをレンダリング",
		"Draw the thread connector below the last post":        "最後の投稿の下にも接続線を描画",
		"Do not download media previews":                       "メディアのプレビューをダウンロードしない",

		// Output flags
		"Output PNG file path (required)":                    "出力PNGファイルパス（必須）",
		"Split into images of at most N items":               "最大N件ずつの画像に分割",
		"Split into images of at most N CSS pixels":          "最大N CSSピクセルずつの画像に分割",
		"Output execution summary to file (Markdown format)": "実行サマリーをファイルに出力（Markdown形式）",

		// Errors
		"Post ID argument is required":   "投稿ID引数が必要です",
		"HTML file argument is required": "HTMLファイル引数が必要です",
		"Invalid post URL: %s":           "無効な投稿URLです: %s",
		"No post ID found in URL: %s":    "URLに投稿IDが見つかりません: %s",

		// Summary content
		"Render Summary":          "レンダリングサマリー",
		"Run ID":                  "実行ID",
		"Generated At":            "生成日時",
		"Thread":                  "スレッド",
		"Leaf Post":               "末尾の投稿",
		"Posts":                   "投稿数",
		"Previews":                "プレビュー",
		"failed":                  "件失敗",
		"Settings":                "設定",
		"Preset":                  "プリセット",
		"Viewport":                "ビューポート",
		"Color Scheme":            "カラースキーム",
		"Split":                   "分割",
		"items per image":         "件ごと",
		"max height":              "最大高さ",
		"none":                    "なし",
		"Render":                  "レンダリング",
		"Image Size":              "画像サイズ",
		"Scale":                   "スケール",
		"Items":                   "アイテム数",
		"Markup":                  "マークアップ",
		"Duration":                "所要時間",
		"Outputs":                 "出力",
		"File":                    "ファイル",
		"Size":                    "サイズ",
		"Generated by threadshot": "生成: threadshot",
	})
}
