package dashboard

const indexHTML = `
<!DOCTYPE html>
<html>
<head>
    <title>Prediction Result</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <link rel="stylesheet" href="/assets/dashboard.css">
</head>
<body>
    <main class="app" id="app">
        <header class="topbar">
            <div class="brand">
                <button type="button" id="sidebar-toggle" class="icon-button" aria-label="Collapse sidebar">&#10216;</button>
                <div class="title">VISION DASH</div>
            </div>
            <nav role="tablist" aria-label="View Tabs" class="tabs">
                <button type="button" role="tab" data-tab="live" aria-selected="true">Live View</button>
                <button type="button" role="tab" data-tab="database" aria-selected="false">Database</button>
            </nav>
        </header>

        <div class="body" id="body">
            <aside class="sidebar" id="sidebar">
                <div class="sidebar-title">Cameras</div>
                <div class="camera-list" id="camera-list"></div>
            </aside>

            <section class="content">
                <div class="live" id="live-view">
                    <div class="image-panel">
                        <img id="live-image" alt="Prediction" hidden>
                        <div class="image-placeholder" id="image-placeholder">Paused</div>
                    </div>
                    <div class="readout">
                        <section class="counts" id="counts" hidden>
                            <div><strong>TARGET:</strong> <span id="set-num"></span></div>
                            <div class="count-row"><strong>ACTUAL:</strong> <span class="big" id="num-obj"></span></div>
                            <div class="count-row"><strong>GAP:</strong> <span class="big" id="num-difference"></span></div>
                        </section>
                        <div class="controls">
                            <button type="button" id="start-button" class="action">Start</button>
                            <button type="button" id="stop-button" class="action" hidden>Stop</button>
                            <span class="error" id="error" hidden></span>
                        </div>
                    </div>
                </div>

                <div class="database" id="database-view" hidden>
                    <h2>Database</h2>
                    <div class="table-wrap">
                        <div class="empty" id="history-empty">No records yet.</div>
                        <table id="history-table" hidden>
                            <thead>
                                <tr>
                                    <th class="image-col">Image</th>
                                    <th role="button" data-sort="index">#</th>
                                    <th role="button" data-sort="set_num">Target</th>
                                    <th role="button" data-sort="num_obj">Actual</th>
                                    <th role="button" data-sort="num_difference">Gap</th>
                                </tr>
                            </thead>
                            <tbody id="history-body"></tbody>
                        </table>
                    </div>
                </div>
            </section>
        </div>

        <div class="selected-camera">
            <span class="muted">Selected:</span>
            <strong id="selected-camera"></strong>
        </div>
    </main>
    <script src="/assets/dashboard.js"></script>
</body>
</html>
`
