package dashboard

// tmplDashboard is the whole document: chrome, filter controls, metric
// cards, charts and the embedded filter/aggregation engine. Chart.js and
// SheetJS are the only external references.
const tmplDashboard = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>AIB Symbotic Dashboard</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.0/dist/chart.umd.min.js"></script>
    <script src="https://cdn.sheetjs.com/xlsx-0.20.1/package/dist/xlsx.full.min.js"></script>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: linear-gradient(135deg, #e8f4fc 0%, #c3dff0 100%);
            padding: 20px;
            color: #262730;
        }
        .container {
            max-width: 1600px;
            margin: 0 auto;
            background: white;
            border-radius: 10px;
            box-shadow: 0 10px 40px rgba(0,113,206,0.15);
            padding: 30px;
        }
        .header {
            text-align: center;
            margin: -30px -30px 30px -30px;
            padding: 30px;
            border-bottom: 4px solid #0071CE;
            background: linear-gradient(135deg, #0071CE 0%, #004a8c 100%);
            border-radius: 10px 10px 0 0;
            color: white;
        }
        .header h1 { font-size: 2.5rem; margin-bottom: 10px; }
        .header .subtitle { opacity: 0.9; font-size: 1.1rem; }
        .metrics-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 15px;
            margin-bottom: 30px;
        }
        .metric-card {
            background: linear-gradient(135deg, #0071CE 0%, #005299 100%);
            color: white;
            padding: 20px;
            border-radius: 10px;
            box-shadow: 0 4px 6px rgba(0,0,0,0.1);
            text-align: center;
        }
        .metric-card.blocking { background: linear-gradient(135deg, #ea1100 0%, #b80d00 100%); }
        .metric-card.starving { background: linear-gradient(135deg, #FFC220 0%, #cc9a1a 100%); color: #333; }
        .metric-label { font-size: 0.85rem; opacity: 0.9; margin-bottom: 8px; }
        .metric-value { font-size: 2rem; font-weight: bold; }
        .filters-section {
            background: #f0f7ff;
            padding: 20px;
            border-radius: 8px;
            margin-bottom: 30px;
            border: 2px solid #0071CE;
        }
        .filters-section h3 { color: #0071CE; margin-bottom: 15px; }
        .filter-row {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 15px;
            margin-bottom: 15px;
        }
        .filter-group { display: flex; flex-direction: column; }
        .filter-group label { font-weight: 600; margin-bottom: 5px; color: #333; font-size: 0.9rem; }
        .filter-group select, .filter-group input {
            padding: 10px;
            border: 1px solid #0071CE;
            border-radius: 5px;
            font-size: 0.95rem;
        }
        .btn {
            padding: 10px 20px;
            border: none;
            border-radius: 5px;
            font-size: 1rem;
            font-weight: 600;
            cursor: pointer;
        }
        .btn-primary { background: #0071CE; color: white; }
        .btn-primary:hover { background: #005a9c; }
        .chart-section { margin-bottom: 30px; }
        .chart-section h2 {
            color: #0071CE;
            margin-bottom: 15px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e0e0e0;
        }
        .chart-container {
            background: white;
            padding: 20px;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.08);
            margin-bottom: 20px;
        }
        .drill-badge {
            margin-bottom: 10px;
            padding: 8px 15px;
            background: #e7f3ff;
            border-radius: 20px;
            border: 2px solid #0071CE;
            display: none;
            align-items: center;
            gap: 10px;
        }
        .drill-badge button {
            background: #ea1100; color: white; border: none; border-radius: 50%;
            width: 22px; height: 22px; cursor: pointer; font-weight: bold; font-size: 0.8rem;
        }
        .insights-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(300px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }
        .insight-card {
            background: #f8fbff;
            border-radius: 10px;
            padding: 20px;
            border: 2px solid #0071CE;
        }
        .insight-card h3 { color: #0071CE; margin-bottom: 15px; font-size: 1.1rem; }
        .insight-card.blocking { border-color: #ea1100; background: #fff8f8; }
        .insight-card.blocking h3 { color: #ea1100; }
        .insight-card.starving { border-color: #FFC220; background: #fffdf5; }
        .insight-card.starving h3 { color: #996b00; }
        .alarm-item {
            padding: 10px;
            margin-bottom: 8px;
            background: white;
            border-radius: 6px;
            border-left: 4px solid #0071CE;
            font-size: 0.9rem;
        }
        .alarm-item.blocking { border-left-color: #ea1100; }
        .alarm-item.starving { border-left-color: #FFC220; }
        table { width: 100%; border-collapse: collapse; }
        th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background: #0071CE; color: white; }
        tr:hover { background: #f5f9ff; }
        .update-info {
            text-align: center;
            color: #666;
            font-size: 0.9rem;
            margin-top: 30px;
            padding-top: 20px;
            border-top: 1px solid #eee;
        }
        .filter-status {
            margin-top: 10px;
            padding: 10px;
            background: #d4edda;
            border-radius: 5px;
            color: #155724;
            font-weight: 600;
            text-align: center;
        }
        .recommendation {
            padding: 12px;
            margin-bottom: 10px;
            border-radius: 8px;
            border-left: 4px solid #2a8703;
            background: #f0fff0;
        }
        .recommendation.high { border-left-color: #ea1100; background: #fff5f5; }
        .recommendation.medium { border-left-color: #FFC220; background: #fffbf0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>AIB Symbotic Dashboard</h1>
            <div class="subtitle">
                Generated: {{.GeneratedAt}} | Data Range: {{.DateRange}}<br>
                {{len .Facets.Sites}} Sites | {{len .Facets.Cells}} Cells | {{.Summary.TotalIncidents}} Total Alarms
            </div>
        </div>

        <div class="filters-section">
            <h3>Filter Dashboard</h3>
            <div class="filter-row">
                <div class="filter-group">
                    <label for="wmWeekFilter">Walmart Week:</label>
                    <select id="wmWeekFilter">
                        <option value="ALL">All Weeks</option>
                        {{range .Facets.Weeks}}<option value="{{.}}">{{.}}</option>
                        {{end}}
                    </select>
                </div>
                <div class="filter-group">
                    <label for="siteFilter">Site/DC:</label>
                    <select id="siteFilter" multiple size="5">
                        <option value="ALL" selected>All Sites</option>
                        {{range .Facets.Sites}}<option value="{{.}}">{{.}}</option>
                        {{end}}
                    </select>
                </div>
                <div class="filter-group">
                    <label for="cellFilter">Cell:</label>
                    <select id="cellFilter" multiple size="5">
                        <option value="ALL" selected>All Cells</option>
                        {{range .Facets.Cells}}<option value="{{.}}">{{.}}</option>
                        {{end}}
                    </select>
                </div>
                <div class="filter-group">
                    <label for="alarmTypeFilter">Alarm Type:</label>
                    <select id="alarmTypeFilter">
                        <option value="ALL" selected>All Alarms</option>
                        <option value="BLOCKING">Blocking Only</option>
                        <option value="STARVING">Starving Only</option>
                    </select>
                </div>
            </div>
            <div class="filter-row" style="margin-top: 10px;">
                <div class="filter-group">
                    <label for="startDate">Start Date:</label>
                    <input type="date" id="startDate" value="{{.MinDate}}">
                </div>
                <div class="filter-group">
                    <label for="endDate">End Date:</label>
                    <input type="date" id="endDate" value="{{.MaxDate}}">
                </div>
            </div>
            <button class="btn btn-primary" onclick="applyFilters()">Apply Filters</button>
            <button class="btn" style="background: #6c757d; color: white; margin-left: 10px;" onclick="resetFilters()">Reset</button>
            <button class="btn" style="background: #2a8703; color: white; margin-left: 10px;" onclick="exportXLSX()">Export XLSX</button>
            <div id="filterStatus" class="filter-status" style="display: none;"></div>
        </div>

        <div class="metrics-grid">
            <div class="metric-card">
                <div class="metric-label">Total AIB Alarms</div>
                <div class="metric-value" id="metricTotal">{{.Summary.TotalIncidents}}</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">Total Downtime (hrs)</div>
                <div class="metric-value" id="metricDowntime">{{hours .Summary.TotalMins}}</div>
            </div>
            <div class="metric-card blocking">
                <div class="metric-label">Blocking Alarms</div>
                <div class="metric-value" id="metricBlocking">{{.Summary.BlockingCount}}</div>
            </div>
            <div class="metric-card starving">
                <div class="metric-label">Starving Alarms</div>
                <div class="metric-value" id="metricStarving">{{.Summary.StarvingCount}}</div>
            </div>
            <div class="metric-card">
                <div class="metric-label">Avg Duration (mins)</div>
                <div class="metric-value" id="metricAvg">{{avg .Summary}}</div>
            </div>
        </div>

        <div class="chart-section" id="weeklyInsightsSection" style="display: none;">
            <h2>Weekly Insights &amp; Recommendations</h2>
            <div id="weeklyInsightsInfo" style="margin-bottom: 15px; padding: 12px; background: #e7f3ff; border-radius: 6px; border-left: 4px solid #0071CE;">
                <strong>Analyzing:</strong> <span id="insightsWeekLabel">-</span> | <span id="insightsSiteLabel">All Sites</span>
            </div>

            <div class="insights-grid">
                <div class="insight-card">
                    <h3>Top 3 Loss Alarms (by Downtime)</h3>
                    <div id="topLossAlarms"></div>
                </div>
                <div class="insight-card blocking">
                    <h3>Top 3 Blocking Alarms</h3>
                    <div id="topBlockingAlarms"></div>
                </div>
                <div class="insight-card starving">
                    <h3>Top 3 Starving Alarms</h3>
                    <div id="topStarvingAlarms"></div>
                </div>
            </div>

            <div class="insights-grid">
                <div class="insight-card">
                    <h3>Most Impacted Cell: <span id="mostImpactedCell">-</span></h3>
                    <div id="mostImpactedCellAlarms"></div>
                </div>
                <div class="insight-card" style="border-color: #2a8703;">
                    <h3 style="color: #2a8703;">Recommendations</h3>
                    <div id="weeklyRecommendations"></div>
                </div>
            </div>
        </div>

        <div class="chart-section">
            <h2>Top 15 AIB Cells by Incident Count <span style="font-size: 0.7em; color: #666; font-weight: normal;">(click a bar to drill down)</span></h2>
            <div id="cellFilterBadge" class="drill-badge">
                <span>Filtering by: <strong id="cellFilterLabel"></strong></span>
                <button onclick="clearCellSelection()">x</button>
            </div>
            <div class="chart-container" style="height: 400px;">
                <canvas id="cellChart"></canvas>
            </div>
        </div>

        <div class="chart-section">
            <h2>Top 15 Components (Pareto Analysis) <span id="compChartCellLabel" style="font-size: 0.7em; color: #0071CE;"></span> <span style="font-size: 0.7em; color: #666; font-weight: normal;">(click a bar to drill down)</span></h2>
            <div id="compFilterBadge" class="drill-badge" style="border-color: #FF6900; background: #fff3e0;">
                <span>Filtering by component: <strong id="compFilterLabel"></strong></span>
                <button onclick="clearComponentSelection()">x</button>
            </div>
            <div class="chart-container" style="height: 400px;">
                <canvas id="componentChart"></canvas>
            </div>
        </div>

        <div class="chart-section">
            <h2>Top 10 Alarm Types <span id="alarmChartCellLabel" style="font-size: 0.7em; color: #0071CE;"></span> <span id="alarmChartCompLabel" style="font-size: 0.7em; color: #FF6900;"></span></h2>
            <div class="chart-container" style="height: 350px;">
                <canvas id="alarmChart"></canvas>
            </div>
        </div>

        <div class="chart-section">
            <h2>Detailed Cell Statistics</h2>
            <div class="chart-container">
                <table id="cellTable">
                    <thead>
                        <tr>
                            <th>Rank</th>
                            <th>Cell</th>
                            <th>Incidents</th>
                            <th>Downtime (mins)</th>
                            <th>Blocking</th>
                            <th>Starving</th>
                            <th>Avg Duration</th>
                        </tr>
                    </thead>
                    <tbody id="cellTableBody"></tbody>
                </table>
            </div>
        </div>

        <div class="update-info">
            AIB Dashboard generated from {{.Source}}<br>
            {{.TotalRows}} AIB alarms analyzed
        </div>
    </div>

    <script>
        const rawIncidents = {{.Records}};
        const initialStartDate = "{{.MinDate}}";
        const initialEndDate = "{{.MaxDate}}";
        const reloadHour = {{.ReloadHour}};
        const reloadMinute = {{.ReloadMinute}};

        let cellChart = null;
        let componentChart = null;
        let alarmChart = null;
        let selectedCell = null;
        let selectedComponent = null;
        let lastFilteredData = null;

        function calculateCumulativePercentages(values) {
            const total = values.reduce((sum, val) => sum + val, 0);
            if (total === 0) return values.map(() => 0);
            let cumSum = 0;
            return values.map(val => {
                cumSum += val;
                return (cumSum / total) * 100;
            });
        }

        function displayAlarm(text) {
            return text.length > 50 ? text.substring(0, 50) + '...' : text;
        }

        // Cell bar click: drill into components and alarm types. Clicking
        // the selected cell again clears the selection; switching cells
        // clears any component selection.
        function onCellBarClick(event, elements) {
            if (!elements || elements.length === 0) return;
            const idx = elements[0].index;
            const clickedCell = cellChart.data.labels[idx];

            if (selectedCell === clickedCell) {
                clearCellSelection();
                return;
            }

            selectedCell = clickedCell;
            clearComponentSelection();

            const data = lastFilteredData || rawIncidents;
            const cellData = data.filter(inc => inc.cell === selectedCell);

            const colors = cellChart.data.labels.map(label =>
                label === selectedCell ? '#FFC220' : '#0071CE'
            );
            cellChart.data.datasets[0].backgroundColor = colors;
            cellChart.update();

            updateComponentsForCell(cellData);
            updateAlarmsForCell(cellData);

            document.getElementById('cellFilterBadge').style.display = 'inline-flex';
            document.getElementById('cellFilterLabel').textContent = selectedCell;
            document.getElementById('compChartCellLabel').textContent = '- ' + selectedCell;
            document.getElementById('alarmChartCellLabel').textContent = '- ' + selectedCell;
        }

        function clearCellSelection() {
            selectedCell = null;
            const data = lastFilteredData || rawIncidents;

            if (cellChart) {
                cellChart.data.datasets[0].backgroundColor = '#0071CE';
                cellChart.update();
            }

            clearComponentSelection();

            updateComponentsForCell(data);
            updateAlarmsForCell(data);

            document.getElementById('cellFilterBadge').style.display = 'none';
            document.getElementById('compChartCellLabel').textContent = '';
            document.getElementById('alarmChartCellLabel').textContent = '';
        }

        function updateComponentsForCell(data) {
            const compCounts = {};
            data.forEach(inc => {
                compCounts[inc.component] = (compCounts[inc.component] || 0) + 1;
            });
            const sortedComps = Object.entries(compCounts).sort((a, b) => b[1] - a[1]).slice(0, 15);
            const compValues = sortedComps.map(c => c[1]);
            const cumulativePcts = calculateCumulativePercentages(compValues);

            if (componentChart) {
                componentChart.data.labels = sortedComps.map(c => c[0]);
                componentChart.data.datasets[0].data = compValues;
                componentChart.data.datasets[1].data = cumulativePcts;
                if (selectedComponent) {
                    componentChart.data.datasets[0].backgroundColor = sortedComps.map(c =>
                        c[0] === selectedComponent ? '#FFC220' : '#0071CE'
                    );
                } else {
                    componentChart.data.datasets[0].backgroundColor = '#0071CE';
                }
                componentChart.update();
            }
        }

        function updateAlarmsForCell(data) {
            const filteredData = selectedComponent
                ? data.filter(inc => inc.component === selectedComponent)
                : data;

            const alarmCounts = {};
            filteredData.forEach(inc => {
                const text = displayAlarm(inc.alarm_text);
                alarmCounts[text] = (alarmCounts[text] || 0) + 1;
            });
            const sortedAlarms = Object.entries(alarmCounts).sort((a, b) => b[1] - a[1]).slice(0, 10);

            if (alarmChart) {
                alarmChart.data.labels = sortedAlarms.map(a => a[0]);
                alarmChart.data.datasets[0].data = sortedAlarms.map(a => a[1]);
                alarmChart.update();
            }
        }

        // Component bar click: narrows only the alarm-type chart.
        function onComponentBarClick(event, elements) {
            if (!elements || elements.length === 0) return;
            // Ignore clicks on the cumulative % line (dataset 1).
            if (elements[0].datasetIndex !== 0) return;

            const idx = elements[0].index;
            const clickedComp = componentChart.data.labels[idx];

            if (selectedComponent === clickedComp) {
                clearComponentSelection();
                return;
            }

            selectedComponent = clickedComp;

            const colors = componentChart.data.labels.map(label =>
                label === selectedComponent ? '#FFC220' : '#0071CE'
            );
            componentChart.data.datasets[0].backgroundColor = colors;
            componentChart.update();

            const data = lastFilteredData || rawIncidents;
            const drillData = selectedCell ? data.filter(inc => inc.cell === selectedCell) : data;
            updateAlarmsForCell(drillData);

            document.getElementById('compFilterBadge').style.display = 'inline-flex';
            document.getElementById('compFilterLabel').textContent = selectedComponent;
            document.getElementById('alarmChartCompLabel').textContent = '- ' + selectedComponent;
        }

        function clearComponentSelection() {
            selectedComponent = null;

            if (componentChart) {
                componentChart.data.datasets[0].backgroundColor = '#0071CE';
                componentChart.update();
            }

            const data = lastFilteredData || rawIncidents;
            const drillData = selectedCell ? data.filter(inc => inc.cell === selectedCell) : data;
            updateAlarmsForCell(drillData);

            document.getElementById('compFilterBadge').style.display = 'none';
            document.getElementById('alarmChartCompLabel').textContent = '';
        }

        // Conjunction of all active predicates. The ALL sentinel on a
        // dimension is the same as omitting that predicate.
        function applyFilters() {
            const selectedWeek = document.getElementById('wmWeekFilter').value;
            const siteSelect = document.getElementById('siteFilter');
            const selectedSites = Array.from(siteSelect.selectedOptions).map(opt => opt.value);
            const cellSelect = document.getElementById('cellFilter');
            const selectedCells = Array.from(cellSelect.selectedOptions).map(opt => opt.value);
            const alarmType = document.getElementById('alarmTypeFilter').value;
            const startDate = document.getElementById('startDate').value;
            const endDate = document.getElementById('endDate').value;

            let filtered = rawIncidents.filter(inc => {
                if (selectedWeek !== 'ALL' && inc.wm_week !== selectedWeek) return false;
                if (!selectedSites.includes('ALL') && !selectedSites.includes(inc.site)) return false;
                if (!selectedCells.includes('ALL') && !selectedCells.includes(inc.cell)) return false;
                if (alarmType === 'BLOCKING' && !inc.blocking) return false;
                if (alarmType === 'STARVING' && !inc.starving) return false;
                if (startDate && inc.alarm_start) {
                    const incDate = inc.alarm_start.substring(0, 10);
                    if (incDate < startDate) return false;
                }
                if (endDate && inc.alarm_start) {
                    const incDate = inc.alarm_start.substring(0, 10);
                    if (incDate > endDate) return false;
                }
                return true;
            });

            // Metric cards always reflect the filter predicate, never the
            // drill selections.
            const totalIncidents = filtered.length;
            const totalDowntime = filtered.reduce((sum, inc) => sum + inc.duration_mins, 0);
            const blockingCount = filtered.filter(inc => inc.blocking).length;
            const starvingCount = filtered.filter(inc => inc.starving).length;
            const avgDowntime = totalIncidents > 0 ? totalDowntime / totalIncidents : 0;

            document.getElementById('metricTotal').textContent = totalIncidents.toLocaleString();
            document.getElementById('metricDowntime').textContent = (totalDowntime / 60).toFixed(1);
            document.getElementById('metricBlocking').textContent = blockingCount.toLocaleString();
            document.getElementById('metricStarving').textContent = starvingCount.toLocaleString();
            document.getElementById('metricAvg').textContent = avgDowntime.toFixed(2);

            updateCharts(filtered);
            updateTable(filtered);

            if (selectedWeek !== 'ALL') {
                updateWeeklyInsights(filtered, selectedWeek, selectedSites);
            } else {
                document.getElementById('weeklyInsightsSection').style.display = 'none';
            }

            const status = document.getElementById('filterStatus');
            status.style.display = 'block';
            status.textContent = 'Showing ' + totalIncidents.toLocaleString() + ' alarms | ' +
                (totalDowntime / 60).toFixed(1) + ' hours downtime | ' +
                blockingCount.toLocaleString() + ' blocking | ' +
                starvingCount.toLocaleString() + ' starving';
        }

        function resetFilters() {
            document.getElementById('wmWeekFilter').value = 'ALL';
            document.getElementById('alarmTypeFilter').value = 'ALL';
            document.getElementById('startDate').value = initialStartDate;
            document.getElementById('endDate').value = initialEndDate;
            Array.from(document.getElementById('siteFilter').options).forEach(opt => opt.selected = opt.value === 'ALL');
            Array.from(document.getElementById('cellFilter').options).forEach(opt => opt.selected = opt.value === 'ALL');
            clearCellSelection();

            applyFilters();

            document.getElementById('weeklyInsightsSection').style.display = 'none';
            document.getElementById('filterStatus').style.display = 'none';
        }

        function updateCharts(data) {
            lastFilteredData = data;

            const cellCounts = {};
            data.forEach(inc => {
                cellCounts[inc.cell] = (cellCounts[inc.cell] || 0) + 1;
            });
            const sortedCells = Object.entries(cellCounts).sort((a, b) => b[1] - a[1]).slice(0, 15);

            if (cellChart) {
                cellChart.data.labels = sortedCells.map(c => c[0]);
                cellChart.data.datasets[0].data = sortedCells.map(c => c[1]);
                if (selectedCell) {
                    cellChart.data.datasets[0].backgroundColor = sortedCells.map(c =>
                        c[0] === selectedCell ? '#FFC220' : '#0071CE'
                    );
                } else {
                    cellChart.data.datasets[0].backgroundColor = '#0071CE';
                }
                cellChart.update();
            }

            const drillData = selectedCell ? data.filter(inc => inc.cell === selectedCell) : data;
            updateComponentsForCell(drillData);
            updateAlarmsForCell(drillData);
        }

        function updateTable(data) {
            const cellStats = {};
            data.forEach(inc => {
                if (!cellStats[inc.cell]) {
                    cellStats[inc.cell] = { count: 0, downtime: 0, blocking: 0, starving: 0 };
                }
                cellStats[inc.cell].count++;
                cellStats[inc.cell].downtime += inc.duration_mins;
                if (inc.blocking) cellStats[inc.cell].blocking++;
                if (inc.starving) cellStats[inc.cell].starving++;
            });

            const sorted = Object.entries(cellStats).sort((a, b) => b[1].count - a[1].count).slice(0, 20);

            const tbody = document.getElementById('cellTableBody');
            tbody.innerHTML = sorted.map((item, idx) => {
                const [cell, stats] = item;
                const avg = stats.count > 0 ? (stats.downtime / stats.count).toFixed(2) : '0.00';
                return '<tr>' +
                    '<td><strong>' + (idx + 1) + '</strong></td>' +
                    '<td>' + cell + '</td>' +
                    '<td>' + stats.count.toLocaleString() + '</td>' +
                    '<td>' + stats.downtime.toFixed(1) + '</td>' +
                    '<td style="color: #ea1100;">' + stats.blocking.toLocaleString() + '</td>' +
                    '<td style="color: #996b00;">' + stats.starving.toLocaleString() + '</td>' +
                    '<td>' + avg + '</td>' +
                    '</tr>';
            }).join('');
        }

        function updateWeeklyInsights(data, selectedWeek, selectedSites) {
            const section = document.getElementById('weeklyInsightsSection');
            section.style.display = 'block';

            document.getElementById('insightsWeekLabel').textContent = selectedWeek;
            document.getElementById('insightsSiteLabel').textContent = selectedSites.includes('ALL') ? 'All Sites' : selectedSites.join(', ');

            // Top 3 loss alarms by summed downtime.
            const alarmDowntime = {};
            data.forEach(inc => {
                if (!alarmDowntime[inc.alarm_text]) {
                    alarmDowntime[inc.alarm_text] = { downtime: 0, count: 0 };
                }
                alarmDowntime[inc.alarm_text].downtime += inc.duration_mins;
                alarmDowntime[inc.alarm_text].count++;
            });
            const topLoss = Object.entries(alarmDowntime).sort((a, b) => b[1].downtime - a[1].downtime).slice(0, 3);
            document.getElementById('topLossAlarms').innerHTML = topLoss.map((item, idx) => {
                const [alarm, stats] = item;
                return '<div class="alarm-item"><strong>#' + (idx + 1) + '</strong> ' + displayAlarm(alarm) +
                    '<br><small>' + stats.downtime.toFixed(0) + ' mins | ' + stats.count + ' occurrences</small></div>';
            }).join('');

            // Top 3 blocking alarms by count.
            const blockingData = data.filter(inc => inc.blocking);
            const blockingAlarms = {};
            blockingData.forEach(inc => {
                blockingAlarms[inc.alarm_text] = (blockingAlarms[inc.alarm_text] || 0) + 1;
            });
            const topBlocking = Object.entries(blockingAlarms).sort((a, b) => b[1] - a[1]).slice(0, 3);
            document.getElementById('topBlockingAlarms').innerHTML = topBlocking.map((item, idx) => {
                const [alarm, count] = item;
                return '<div class="alarm-item blocking"><strong>#' + (idx + 1) + '</strong> ' + displayAlarm(alarm) +
                    '<br><small>' + count + ' blocking alarms</small></div>';
            }).join('') || '<p style="color: #888;">No blocking alarms</p>';

            // Top 3 starving alarms by count.
            const starvingData = data.filter(inc => inc.starving);
            const starvingAlarms = {};
            starvingData.forEach(inc => {
                starvingAlarms[inc.alarm_text] = (starvingAlarms[inc.alarm_text] || 0) + 1;
            });
            const topStarving = Object.entries(starvingAlarms).sort((a, b) => b[1] - a[1]).slice(0, 3);
            document.getElementById('topStarvingAlarms').innerHTML = topStarving.map((item, idx) => {
                const [alarm, count] = item;
                return '<div class="alarm-item starving"><strong>#' + (idx + 1) + '</strong> ' + displayAlarm(alarm) +
                    '<br><small>' + count + ' starving alarms</small></div>';
            }).join('') || '<p style="color: #888;">No starving alarms</p>';

            // Cell with the highest summed downtime and its top 3 alarms.
            const cellDowntime = {};
            data.forEach(inc => {
                if (!cellDowntime[inc.cell]) {
                    cellDowntime[inc.cell] = { downtime: 0, count: 0, topAlarm: {} };
                }
                cellDowntime[inc.cell].downtime += inc.duration_mins;
                cellDowntime[inc.cell].count++;
                cellDowntime[inc.cell].topAlarm[inc.alarm_text] = (cellDowntime[inc.cell].topAlarm[inc.alarm_text] || 0) + 1;
            });
            const sortedCells = Object.entries(cellDowntime).sort((a, b) => b[1].downtime - a[1].downtime);

            if (sortedCells.length > 0) {
                const [cellName, cellData] = sortedCells[0];
                document.getElementById('mostImpactedCell').textContent = cellName + ' (' + cellData.downtime.toFixed(0) + ' mins)';
                const cellTopAlarms = Object.entries(cellData.topAlarm).sort((a, b) => b[1] - a[1]).slice(0, 3);
                document.getElementById('mostImpactedCellAlarms').innerHTML = cellTopAlarms.map((item, idx) => {
                    const [alarm, count] = item;
                    const display = alarm.length > 45 ? alarm.substring(0, 45) + '...' : alarm;
                    return '<div class="alarm-item"><strong>#' + (idx + 1) + '</strong> ' + display + ' <small>(' + count + 'x)</small></div>';
                }).join('');
            }

            const recommendations = [];
            if (topLoss.length > 0) {
                const [alarm, stats] = topLoss[0];
                const short = alarm.length > 35 ? alarm.substring(0, 35) + '...' : alarm;
                recommendations.push('<div class="recommendation high"><strong>Fix:</strong> "' + short + '" - ' + stats.downtime.toFixed(0) + ' mins lost</div>');
            }
            if (sortedCells.length > 0) {
                const [cellName, cellData] = sortedCells[0];
                recommendations.push('<div class="recommendation high"><strong>Focus:</strong> ' + cellName + ' needs attention (' + cellData.count + ' alarms)</div>');
            }
            if (topBlocking.length > 0) {
                recommendations.push('<div class="recommendation medium"><strong>Blocking:</strong> ' + blockingData.length + ' blocking alarms impacting flow</div>');
            }
            if (topStarving.length > 0) {
                recommendations.push('<div class="recommendation medium"><strong>Starving:</strong> ' + starvingData.length + ' starving alarms - check upstream</div>');
            }
            document.getElementById('weeklyRecommendations').innerHTML = recommendations.join('');
        }

        function exportXLSX() {
            const data = (lastFilteredData || rawIncidents).map(inc => ({
                Site: inc.site,
                Cell: inc.cell,
                Component: inc.component,
                'Alarm Text': inc.alarm_text,
                'Alarm Start': inc.alarm_start,
                'Duration (mins)': inc.duration_mins,
                'WM Week': inc.wm_week,
                Blocking: inc.blocking,
                Starving: inc.starving,
                Driveway: inc.driveway
            }));
            const ws = XLSX.utils.json_to_sheet(data);
            const wb = XLSX.utils.book_new();
            XLSX.utils.book_append_sheet(wb, ws, 'Incidents');
            XLSX.writeFile(wb, 'aib_incidents.xlsx');
        }

        function initCharts() {
            const cellCounts = {};
            rawIncidents.forEach(inc => {
                cellCounts[inc.cell] = (cellCounts[inc.cell] || 0) + 1;
            });
            const sortedCells = Object.entries(cellCounts).sort((a, b) => b[1] - a[1]).slice(0, 15);

            cellChart = new Chart(document.getElementById('cellChart'), {
                type: 'bar',
                data: {
                    labels: sortedCells.map(c => c[0]),
                    datasets: [{
                        label: 'Incidents',
                        data: sortedCells.map(c => c[1]),
                        backgroundColor: '#0071CE',
                        borderColor: '#005299',
                        borderWidth: 1
                    }]
                },
                options: {
                    responsive: true,
                    maintainAspectRatio: false,
                    plugins: { legend: { display: false } },
                    scales: { y: { beginAtZero: true } },
                    onClick: onCellBarClick,
                    onHover: (event, elements) => {
                        event.native.target.style.cursor = elements.length ? 'pointer' : 'default';
                    }
                }
            });

            const compCounts = {};
            rawIncidents.forEach(inc => {
                compCounts[inc.component] = (compCounts[inc.component] || 0) + 1;
            });
            const sortedComps = Object.entries(compCounts).sort((a, b) => b[1] - a[1]).slice(0, 15);
            const compValues = sortedComps.map(c => c[1]);
            const cumulativePcts = calculateCumulativePercentages(compValues);

            componentChart = new Chart(document.getElementById('componentChart'), {
                type: 'bar',
                data: {
                    labels: sortedComps.map(c => c[0]),
                    datasets: [{
                        label: 'Incidents',
                        data: compValues,
                        backgroundColor: '#0071CE',
                        borderWidth: 1,
                        yAxisID: 'y'
                    }, {
                        label: 'Cumulative %',
                        data: cumulativePcts,
                        type: 'line',
                        borderColor: '#FF6900',
                        borderWidth: 3,
                        pointRadius: 4,
                        fill: false,
                        yAxisID: 'y1'
                    }]
                },
                options: {
                    responsive: true,
                    maintainAspectRatio: false,
                    scales: {
                        y: { beginAtZero: true, position: 'left' },
                        y1: { beginAtZero: true, position: 'right', max: 100, grid: { drawOnChartArea: false } }
                    },
                    onClick: onComponentBarClick,
                    onHover: (event, elements) => {
                        event.native.target.style.cursor = elements.length ? 'pointer' : 'default';
                    }
                }
            });

            const alarmCounts = {};
            rawIncidents.forEach(inc => {
                const text = displayAlarm(inc.alarm_text);
                alarmCounts[text] = (alarmCounts[text] || 0) + 1;
            });
            const sortedAlarms = Object.entries(alarmCounts).sort((a, b) => b[1] - a[1]).slice(0, 10);

            alarmChart = new Chart(document.getElementById('alarmChart'), {
                type: 'bar',
                data: {
                    labels: sortedAlarms.map(a => a[0]),
                    datasets: [{
                        label: 'Occurrences',
                        data: sortedAlarms.map(a => a[1]),
                        backgroundColor: '#FFC220',
                        borderWidth: 1
                    }]
                },
                options: {
                    responsive: true,
                    maintainAspectRatio: false,
                    indexAxis: 'y',
                    plugins: { legend: { display: false } }
                }
            });

            updateTable(rawIncidents);
        }

        document.getElementById('wmWeekFilter').addEventListener('change', applyFilters);
        document.getElementById('alarmTypeFilter').addEventListener('change', applyFilters);

        initCharts();

        // Reload once a day at the configured wall-clock time to pick up
        // the freshly generated report.
        function scheduleAutoReload() {
            const now = new Date();
            const target = new Date();
            target.setHours(reloadHour, reloadMinute, 0, 0);
            if (target <= now) target.setDate(target.getDate() + 1);
            const msUntilReload = target - now;
            console.log('[AIB Dashboard] Auto-reload scheduled in ' + Math.round(msUntilReload / 60000) + ' minutes');
            setTimeout(() => location.reload(), msUntilReload);
        }
        scheduleAutoReload();
    </script>
</body>
</html>
`
